package macaroon

// Format identifies one of the three macaroon wire formats.
type Format int

const (
	// V1 is the legacy text-packet format, base64-encoded as a whole.
	V1 Format = iota
	// V2 is the compact binary TLV format.
	V2
	// V2J is the JSON rendering of the V2 format.
	V2J
)

// Serialize encodes m in the given wire format.
func (m *Macaroon) Serialize(f Format) ([]byte, error) {
	switch f {
	case V1:
		return serializeV1(m)
	case V2:
		return serializeV2(m)
	case V2J:
		return serializeV2J(m)
	default:
		return nil, errorf(InvalidArgument, "unknown macaroon format %d", f)
	}
}

// Deserialize decodes a macaroon from data, auto-detecting its wire
// format from the leading byte: '{' selects V2J, 0x02 selects V2, and
// any base64 alphabet character selects V1.
func Deserialize(data []byte) (*Macaroon, error) {
	if len(data) == 0 {
		return nil, errorf(UnknownFormat, "empty macaroon data")
	}
	switch {
	case data[0] == '{':
		return deserializeV2J(data)
	case data[0] == v2Version:
		return deserializeV2(data)
	case isV1Leader(data[0]):
		return deserializeV1(data)
	default:
		return nil, errorf(UnknownFormat, "cannot identify macaroon serialization format")
	}
}

func isV1Leader(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '-' || b == '/' || b == '_':
		return true
	}
	return false
}

// MarshalBinary implements encoding.BinaryMarshaler, emitting the V2
// wire format.
func (m *Macaroon) MarshalBinary() ([]byte, error) {
	return m.Serialize(V2)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, auto-detecting
// the wire format of data (so it also accepts V1 and V2J blobs).
func (m *Macaroon) UnmarshalBinary(data []byte) error {
	decoded, err := Deserialize(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// MarshalJSON implements json.Marshaler, emitting the V2J wire format.
func (m *Macaroon) MarshalJSON() ([]byte, error) {
	return m.Serialize(V2J)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Macaroon) UnmarshalJSON(data []byte) error {
	decoded, err := deserializeV2J(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
