package macaroon

const (
	v2Version       byte = 0x02
	v2TagEOS        byte = 0x00
	v2TagLocation   byte = 0x01
	v2TagIdentifier byte = 0x02
	v2TagVID        byte = 0x04
	v2TagSignature  byte = 0x06
)

const v2MaxVarintShift = 63

func appendV2Varint(buf []byte, size int) []byte {
	u := uint64(size)
	for u >= 0x80 {
		buf = append(buf, byte(u&0x7f)|0x80)
		u >>= 7
	}
	return append(buf, byte(u))
}

func appendV2Field(buf []byte, tag byte, value []byte) []byte {
	buf = append(buf, tag)
	buf = appendV2Varint(buf, len(value))
	return append(buf, value...)
}

func serializeV2(m *Macaroon) ([]byte, error) {
	buf := []byte{v2Version}
	if m.location != "" {
		buf = appendV2Field(buf, v2TagLocation, []byte(m.location))
	}
	buf = appendV2Field(buf, v2TagIdentifier, m.identifier)
	buf = append(buf, v2TagEOS)
	for _, cav := range m.caveats {
		if cav.Location != "" {
			buf = appendV2Field(buf, v2TagLocation, []byte(cav.Location))
		}
		buf = appendV2Field(buf, v2TagIdentifier, cav.Id)
		if cav.isThirdParty() {
			buf = appendV2Field(buf, v2TagVID, cav.VerificationId)
		}
		buf = append(buf, v2TagEOS)
	}
	buf = append(buf, v2TagEOS)
	buf = appendV2Field(buf, v2TagSignature, m.sig[:])
	return buf, nil
}

type v2Reader struct {
	data []byte
	pos  int
}

func (r *v2Reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errorf(DeserializationError, "unexpected end of V2 macaroon")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *v2Reader) varint() (int, error) {
	var size uint64
	shift := uint(0)
	for {
		if shift > v2MaxVarintShift {
			return 0, errorf(DeserializationError, "varint overflow")
		}
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		if b&0x80 != 0 {
			size |= uint64(b&0x7f) << shift
		} else {
			size |= uint64(b) << shift
			return int(size), nil
		}
		shift += 7
	}
}

func (r *v2Reader) field() ([]byte, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errorf(DeserializationError, "V2 field length out of range")
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func deserializeV2(data []byte) (*Macaroon, error) {
	r := &v2Reader{data: data}
	m, err := decodeV2(r)
	if err != nil {
		return nil, err
	}
	if r.pos != len(data) {
		return nil, errorf(DeserializationError, "trailing data after V2 macaroon")
	}
	return m, nil
}

// decodeV2 decodes a single V2 macaroon starting at r's current
// position, leaving r positioned just past it. It is also used by
// Slice.UnmarshalBinary to decode a back-to-back stream of macaroons.
func decodeV2(r *v2Reader) (*Macaroon, error) {
	version, err := r.byte()
	if err != nil {
		return nil, err
	}
	if version != v2Version {
		return nil, errorf(DeserializationError, "unexpected V2 version byte %#x", version)
	}

	m := &Macaroon{}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	if tag == v2TagLocation {
		loc, err := r.field()
		if err != nil {
			return nil, err
		}
		m.location = string(loc)
		tag, err = r.byte()
		if err != nil {
			return nil, err
		}
	}
	if tag != v2TagIdentifier {
		return nil, errorf(DeserializationError, "expected macaroon identifier field")
	}
	id, err := r.field()
	if err != nil {
		return nil, err
	}
	m.identifier = append([]byte(nil), id...)
	if eos, err := r.byte(); err != nil {
		return nil, err
	} else if eos != v2TagEOS {
		return nil, errorf(DeserializationError, "expected end-of-section after macaroon identifier")
	}

	for {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}
		if tag == v2TagEOS {
			break
		}
		var cav Caveat
		if tag == v2TagLocation {
			loc, err := r.field()
			if err != nil {
				return nil, err
			}
			cav.Location = string(loc)
			tag, err = r.byte()
			if err != nil {
				return nil, err
			}
		}
		if tag != v2TagIdentifier {
			return nil, errorf(DeserializationError, "expected caveat identifier field")
		}
		id, err := r.field()
		if err != nil {
			return nil, err
		}
		cav.Id = append([]byte(nil), id...)

		tag, err = r.byte()
		if err != nil {
			return nil, err
		}
		if tag == v2TagVID {
			vid, err := r.field()
			if err != nil {
				return nil, err
			}
			cav.VerificationId = append([]byte(nil), vid...)
			if eos, err := r.byte(); err != nil {
				return nil, err
			} else if eos != v2TagEOS {
				return nil, errorf(DeserializationError, "expected end-of-section after caveat verification id")
			}
		} else if tag != v2TagEOS {
			return nil, errorf(DeserializationError, "unexpected tag %#x in caveat", tag)
		}
		m.caveats = append(m.caveats, cav)
	}

	tag, err = r.byte()
	if err != nil {
		return nil, err
	}
	if tag != v2TagSignature {
		return nil, errorf(DeserializationError, "expected signature field")
	}
	sig, err := r.field()
	if err != nil {
		return nil, err
	}
	if len(sig) != keyLen {
		return nil, errorf(DeserializationError, "signature has unexpected length %d", len(sig))
	}
	copy(m.sig[:], sig)
	return m, nil
}
