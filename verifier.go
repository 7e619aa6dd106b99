package macaroon

import "bytes"

// Predicate reports whether a first-party caveat identifier is
// satisfied. It mirrors the http.Handler/http.HandlerFunc split so a
// plain function can be used as a Predicate via PredicateFunc.
type Predicate interface {
	Matches(caveatId []byte) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(caveatId []byte) bool

// Matches calls f(caveatId).
func (f PredicateFunc) Matches(caveatId []byte) bool {
	return f(caveatId)
}

// Verifier accumulates the conditions under which a macaroon (and its
// discharges) should be considered valid: first-party caveats are
// checked against the exact and general predicates registered here,
// third-party caveats are discharged from the macaroons registered
// with AddDischargeMacaroons.
//
// A Verifier holds no state across calls to Verify; the same Verifier
// may be reused to check any number of unrelated macaroons.
type Verifier struct {
	exact      [][]byte
	general    []Predicate
	discharges []*Macaroon
}

// NewVerifier returns an empty Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// SatisfyExact registers predicate as satisfied verbatim: any
// first-party caveat whose id is byte-for-byte equal to predicate
// passes.
func (v *Verifier) SatisfyExact(predicate []byte) {
	v.exact = append(v.exact, append([]byte(nil), predicate...))
}

// SatisfyGeneral registers p as a general matcher consulted for every
// first-party caveat id not already satisfied by an exact match.
func (v *Verifier) SatisfyGeneral(p Predicate) {
	v.general = append(v.general, p)
}

// AddDischargeMacaroons registers discharge macaroons that may be used
// to satisfy third-party caveats. Each macaroon is cloned, so the
// caller retains ownership of the values passed in.
func (v *Verifier) AddDischargeMacaroons(ms ...*Macaroon) {
	for _, m := range ms {
		v.discharges = append(v.discharges, m.Clone())
	}
}

func (v *Verifier) satisfiesFirstParty(id []byte) bool {
	for _, p := range v.exact {
		if bytes.Equal(p, id) {
			return true
		}
	}
	for _, p := range v.general {
		if p.Matches(id) {
			return true
		}
	}
	return false
}

func (v *Verifier) dischargesFor(id []byte) []*Macaroon {
	var out []*Macaroon
	for _, d := range v.discharges {
		if bytes.Equal(d.identifier, id) {
			out = append(out, d)
		}
	}
	return out
}

// Verify reports whether m, together with any discharge macaroons
// registered on v, is valid: its signature chain checks out under the
// key derived from userSecret, every first-party caveat is satisfied
// by v's predicates, and every third-party caveat is discharged by a
// registered macaroon whose own chain checks out, recursively.
//
// A false, nil result means the macaroon is merely unauthorized: a
// caveat failed, no discharge was found, a discharge's key or
// signature didn't check out, or a discharge cycle was detected. A
// non-nil error means the input itself was malformed in some other
// way.
func (m *Macaroon) Verify(userSecret []byte, v *Verifier) (bool, error) {
	if v == nil {
		v = NewVerifier()
	}
	dk := deriveRootKey(userSecret)
	return v.verify(m, dk, true, m.sig, nil)
}

// verify checks m's signature chain under key, then its caveats. rootSig
// is always the outermost macaroon's final signature: discharge
// macaroons are bound against it regardless of nesting depth. idChain
// is the stack of third-party caveat ids on the path from the root to
// m, used to detect discharge cycles; it is not a global used-discharge
// set, so unrelated branches may legally reuse the same discharge id.
func (v *Verifier) verify(m *Macaroon, key [keyLen]byte, isRoot bool, rootSig [keyLen]byte, idChain [][]byte) (bool, error) {
	sig := hmacSum(key[:], m.identifier)
	preCaveatSigs := make([][keyLen]byte, len(m.caveats))
	for i, cav := range m.caveats {
		preCaveatSigs[i] = sig
		if cav.isThirdParty() {
			sig = hmacChain(sig[:], cav.VerificationId, cav.Id)
		} else {
			sig = hmacSum(sig[:], cav.Id)
		}
	}
	if !isRoot {
		sig = bindSignature(rootSig, sig)
	}
	if !constantTimeEq(sig[:], m.sig[:]) {
		return false, nil
	}

	for i, cav := range m.caveats {
		if !cav.isThirdParty() {
			if !v.satisfiesFirstParty(cav.Id) {
				return false, nil
			}
			continue
		}
		for _, ancestor := range idChain {
			if bytes.Equal(ancestor, cav.Id) {
				// A discharge cycle means no discharge can ever
				// satisfy this caveat, not that the input is
				// malformed.
				return false, nil
			}
		}
		dischargeKey, err := open(preCaveatSigs[i], cav.VerificationId)
		if err != nil || len(dischargeKey) != keyLen {
			// The verification id fails to open under a key derived from
			// the wrong secret just as often as under a tampered one;
			// either way this is an ordinary verification failure, not
			// malformed input.
			return false, nil
		}
		var dk [keyLen]byte
		copy(dk[:], dischargeKey)

		ok, err := v.verifyCaveat(cav.Id, dk, rootSig, append(idChain, cav.Id))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// verifyCaveat tries every registered discharge macaroon matching
// caveatId in turn, succeeding if any of them verifies.
func (v *Verifier) verifyCaveat(caveatId []byte, dischargeKey [keyLen]byte, rootSig [keyLen]byte, idChain [][]byte) (bool, error) {
	candidates := v.dischargesFor(caveatId)
	if len(candidates) == 0 {
		return false, nil
	}
	for _, discharge := range candidates {
		ok, err := v.verify(discharge, dischargeKey, false, rootSig, idChain)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
