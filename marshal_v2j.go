package macaroon

import (
	"encoding/base64"
	"encoding/json"
)

// caveatV2J is the wire shape of a single caveat in the V2J format.
// Each of (I, I64), (L, L64), (V, V64) is mutually exclusive; exactly
// one of the id pair must be present, the others are optional.
type caveatV2J struct {
	I   string `json:"i,omitempty"`
	I64 string `json:"i64,omitempty"`
	L   string `json:"l,omitempty"`
	L64 string `json:"l64,omitempty"`
	V   string `json:"v,omitempty"`
	V64 string `json:"v64,omitempty"`
}

// macaroonV2J is the wire shape of a whole macaroon in the V2J format.
type macaroonV2J struct {
	V   int         `json:"v"`
	I   string      `json:"i,omitempty"`
	I64 string      `json:"i64,omitempty"`
	L   string      `json:"l,omitempty"`
	L64 string      `json:"l64,omitempty"`
	C   []caveatV2J `json:"c,omitempty"`
	S   string      `json:"s,omitempty"`
	S64 string      `json:"s64,omitempty"`
}

func serializeV2J(m *Macaroon) ([]byte, error) {
	mj := macaroonV2J{
		V:   2,
		I64: base64.StdEncoding.EncodeToString(m.identifier),
		S64: base64.StdEncoding.EncodeToString(m.sig[:]),
	}
	if m.location != "" {
		mj.L64 = base64.StdEncoding.EncodeToString([]byte(m.location))
	}
	if len(m.caveats) > 0 {
		mj.C = make([]caveatV2J, len(m.caveats))
		for i, cav := range m.caveats {
			cj := caveatV2J{I64: base64.StdEncoding.EncodeToString(cav.Id)}
			if cav.Location != "" {
				cj.L64 = base64.StdEncoding.EncodeToString([]byte(cav.Location))
			}
			if cav.isThirdParty() {
				cj.V64 = base64.StdEncoding.EncodeToString(cav.VerificationId)
			}
			mj.C[i] = cj
		}
	}
	return json.Marshal(mj)
}

// stringOrBase64 resolves one of a (plain, base64) field pair to raw
// bytes, rejecting the case where both are present. required controls
// whether an empty pair is itself an error. The base64 form uses the
// standard alphabet, with or without padding.
func stringOrBase64(plain, b64 string, fieldName string, required bool) ([]byte, error) {
	havePlain := plain != ""
	haveB64 := b64 != ""
	if havePlain && haveB64 {
		return nil, errorf(DeserializationError, "V2J macaroon has both %s and %s64 fields", fieldName, fieldName)
	}
	if havePlain {
		return []byte(plain), nil
	}
	if haveB64 {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(b64)
		}
		if err != nil {
			return nil, wrapf(err, DeserializationError, "cannot decode %s64 field", fieldName)
		}
		return decoded, nil
	}
	if required {
		return nil, errorf(DeserializationError, "V2J macaroon missing %s field", fieldName)
	}
	return nil, nil
}

func deserializeV2J(data []byte) (*Macaroon, error) {
	var mj macaroonV2J
	if err := json.Unmarshal(data, &mj); err != nil {
		return nil, wrapf(err, DeserializationError, "cannot unmarshal V2J macaroon")
	}
	if mj.V != 2 {
		return nil, errorf(DeserializationError, "unexpected V2J version %d", mj.V)
	}
	m := &Macaroon{}

	id, err := stringOrBase64(mj.I, mj.I64, "i", true)
	if err != nil {
		return nil, err
	}
	m.identifier = id

	loc, err := stringOrBase64(mj.L, mj.L64, "l", false)
	if err != nil {
		return nil, err
	}
	m.location = string(loc)

	sig, err := stringOrBase64(mj.S, mj.S64, "s", true)
	if err != nil {
		return nil, err
	}
	if len(sig) != keyLen {
		return nil, errorf(DeserializationError, "signature has unexpected length %d", len(sig))
	}
	copy(m.sig[:], sig)

	for _, cj := range mj.C {
		var cav Caveat
		id, err := stringOrBase64(cj.I, cj.I64, "c[].i", true)
		if err != nil {
			return nil, err
		}
		cav.Id = id
		loc, err := stringOrBase64(cj.L, cj.L64, "c[].l", false)
		if err != nil {
			return nil, err
		}
		cav.Location = string(loc)
		vid, err := stringOrBase64(cj.V, cj.V64, "c[].v", false)
		if err != nil {
			return nil, err
		}
		cav.VerificationId = vid
		m.caveats = append(m.caveats, cav)
	}
	return m, nil
}
