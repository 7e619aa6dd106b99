package macaroon

import (
	"github.com/juju/errgo"
)

// Kind classifies an error returned by this package. It implements
// error itself so that a bare Kind value can be compared against what
// errgo.Cause returns.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// ErrorCode lets callers recover the Kind of an error produced by this
// package with errgo.Cause(err), mirroring the errorCoder convention
// used elsewhere in this corpus for classifying wrapped errors.
func (k Kind) ErrorCode() Kind {
	return k
}

const (
	// InvalidArgument is returned for an empty identifier, an empty
	// predicate, or a malformed caller-supplied argument.
	InvalidArgument Kind = "invalid argument"

	// UnknownFormat is returned when Deserialize cannot classify the
	// input by its leading byte.
	UnknownFormat Kind = "unknown macaroon serialization format"

	// DeserializationError is returned for malformed bytes, an
	// unknown or out-of-order wire tag, a truncated field, a
	// conflicting pair of V2J fields, or varint overflow.
	DeserializationError Kind = "macaroon deserialization error"

	// DecryptError is returned by AddThirdPartyCaveat when sealing the
	// discharge key fails (for example, when the random source fails);
	// inside Verify, a decrypt failure simply yields (false, nil).
	DecryptError Kind = "macaroon decryption error"
)

// Cause reports the Kind of err, if errgo.Cause(err) is a Kind or
// carries one through ErrorCode. Only the cause of err itself is
// examined; an error wrapped by other means is not unwrapped.
func Cause(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	cause := errgo.Cause(err)
	if k, ok := cause.(Kind); ok {
		return k, true
	}
	if coder, ok := cause.(interface{ ErrorCode() Kind }); ok {
		return coder.ErrorCode(), true
	}
	return "", false
}

func errorf(kind Kind, format string, args ...interface{}) error {
	return errgo.WithCausef(nil, kind, format, args...)
}

func wrapf(cause error, kind Kind, format string, args ...interface{}) error {
	return errgo.WithCausef(cause, kind, format, args...)
}
