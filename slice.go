package macaroon

import "fmt"

// Slice holds a collection of macaroons. By convention the first
// element is a primary macaroon and the rest are discharges for its
// third-party caveats.
type Slice []*Macaroon

// MarshalBinary implements encoding.BinaryMarshaler, concatenating each
// macaroon's V2 encoding in order. Each element's encoding is
// self-delimiting, so the concatenation can be split again without a
// separate length table.
func (s Slice) MarshalBinary() ([]byte, error) {
	var data []byte
	for _, m := range s {
		enc, err := serializeV2(m)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal macaroon %q: %v", m.Id(), err)
		}
		data = append(data, enc...)
	}
	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, splitting data
// into back-to-back V2-encoded macaroons.
func (s *Slice) UnmarshalBinary(data []byte) error {
	r := &v2Reader{data: append([]byte(nil), data...)}
	result := (*s)[:0]
	for r.pos < len(r.data) {
		m, err := decodeV2(r)
		if err != nil {
			return fmt.Errorf("cannot unmarshal macaroon: %v", err)
		}
		result = append(result, m)
	}
	*s = result
	return nil
}

// DischargeAll gathers discharge macaroons for every third-party caveat
// in m, and for every third-party caveat those discharges in turn
// carry, calling getDischarge once per caveat to obtain each one. Every
// discharge is bound to m's signature before being returned. The
// result has m as its first element, followed by its discharges in the
// order they were fetched.
func DischargeAll(m *Macaroon, getDischarge func(cav Caveat) (*Macaroon, error)) (Slice, error) {
	rootSig := m.sig
	discharges := Slice{m}

	var pending []Caveat
	collectThirdParty := func(mm *Macaroon) {
		for _, cav := range mm.caveats {
			if cav.isThirdParty() {
				pending = append(pending, cav)
			}
		}
	}
	collectThirdParty(m)

	for len(pending) > 0 {
		cav := pending[0]
		pending = pending[1:]
		dm, err := getDischarge(cav)
		if err != nil {
			return nil, fmt.Errorf("cannot discharge caveat %q: %v", cav.Id, err)
		}
		dm = dm.Clone()
		dm.bindToRoot(rootSig)
		discharges = append(discharges, dm)
		collectThirdParty(dm)
	}
	return discharges, nil
}
