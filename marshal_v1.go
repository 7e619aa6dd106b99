package macaroon

import (
	"encoding/base64"
)

// serializeV1 writes m as a stream of V1 packets, in turn: an optional
// location, the identifier, each caveat's cid/vid/cl packets, and
// finally the signature — then base64url-encodes the whole stream
// without padding.
func serializeV1(m *Macaroon) ([]byte, error) {
	var buf []byte
	var err error
	if m.location != "" {
		buf, err = appendV1Packet(buf, v1FieldLocation, []byte(m.location))
		if err != nil {
			return nil, err
		}
	}
	buf, err = appendV1Packet(buf, v1FieldIdentifier, m.identifier)
	if err != nil {
		return nil, err
	}
	for _, cav := range m.caveats {
		buf, err = appendV1Packet(buf, v1FieldCaveatId, cav.Id)
		if err != nil {
			return nil, err
		}
		if cav.isThirdParty() {
			buf, err = appendV1Packet(buf, v1FieldVerificationId, cav.VerificationId)
			if err != nil {
				return nil, err
			}
			buf, err = appendV1Packet(buf, v1FieldCaveatLocation, []byte(cav.Location))
			if err != nil {
				return nil, err
			}
		}
	}
	buf, err = appendV1Packet(buf, v1FieldSignature, m.sig[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(buf)))
	base64.RawURLEncoding.Encode(out, buf)
	return out, nil
}

// decodeV1Base64 accepts both the standard and URL-safe alphabets,
// with or without padding.
func decodeV1Base64(data []byte) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		out := make([]byte, enc.DecodedLen(len(data)))
		n, err := enc.Decode(out, data)
		if err == nil {
			return out[:n], nil
		}
		lastErr = err
	}
	return nil, wrapf(lastErr, DeserializationError, "cannot base64-decode V1 macaroon")
}

func deserializeV1(data []byte) (*Macaroon, error) {
	raw, err := decodeV1Base64(data)
	if err != nil {
		return nil, err
	}
	m := &Macaroon{}
	var cav Caveat
	haveCaveat := false
	for len(raw) > 0 {
		p, n, err := parseV1Packet(raw)
		if err != nil {
			return nil, err
		}
		raw = raw[n:]
		switch p.field {
		case v1FieldLocation:
			m.location = string(trimV1Text(p.value))
		case v1FieldIdentifier:
			m.identifier = append([]byte(nil), trimV1Text(p.value)...)
		case v1FieldCaveatId:
			if haveCaveat {
				m.caveats = append(m.caveats, cav)
			}
			cav = Caveat{Id: append([]byte(nil), trimV1Text(p.value)...)}
			haveCaveat = true
		case v1FieldVerificationId:
			if !haveCaveat {
				return nil, errorf(DeserializationError, "vid packet without preceding cid packet")
			}
			cav.VerificationId = append([]byte(nil), stripPacketNewline(p.value)...)
		case v1FieldCaveatLocation:
			if !haveCaveat {
				return nil, errorf(DeserializationError, "cl packet without preceding cid packet")
			}
			cav.Location = string(trimV1Text(p.value))
		case v1FieldSignature:
			if haveCaveat {
				m.caveats = append(m.caveats, cav)
				haveCaveat = false
			}
			if len(p.value) < keyLen {
				return nil, errorf(DeserializationError, "signature packet too short")
			}
			copy(m.sig[:], p.value[:keyLen])
		default:
			return nil, errorf(DeserializationError, "unknown V1 field %q", p.field)
		}
	}
	if m.identifier == nil {
		return nil, errorf(DeserializationError, "V1 macaroon missing identifier")
	}
	return m, nil
}
