// Package macaroon implements macaroons as described in the paper
// "Macaroons: Cookies with Contextual Caveats for Decentralized
// Authorization in the Cloud"
// (http://theory.stanford.edu/~ataly/Papers/macaroons.pdf).
//
// A macaroon is a bearer credential that can be attenuated, without
// contacting its issuer, by appending caveats: first-party caveats are
// checked locally against a set of matchers at verification time;
// third-party caveats require a discharge macaroon obtained from
// another authority.
package macaroon

import (
	"crypto/rand"
	"io"
)

// Caveat holds a first-party or third-party caveat attached to a
// macaroon. A caveat is third-party if VerificationId is non-empty.
type Caveat struct {
	Id             []byte
	VerificationId []byte
	Location       string
}

func (cav Caveat) isThirdParty() bool {
	return len(cav.VerificationId) > 0
}

func (cav Caveat) clone() Caveat {
	return Caveat{
		Id:             append([]byte(nil), cav.Id...),
		VerificationId: append([]byte(nil), cav.VerificationId...),
		Location:       cav.Location,
	}
}

// Macaroon holds a macaroon: a location hint, an opaque identifier, an
// ordered list of caveats, and the HMAC chain signature binding them
// together. Macaroons are immutable once minted except through the
// builder methods below, which grow the signature and caveat list in
// lock-step; use Clone before mutating a macaroon you don't exclusively
// own.
type Macaroon struct {
	location   string
	identifier []byte
	caveats    []Caveat
	sig        [keyLen]byte
}

// Create mints a new macaroon at location, signed with the key derived
// from userSecret, carrying identifier and no caveats.
func Create(location string, userSecret, identifier []byte) (*Macaroon, error) {
	if len(identifier) == 0 {
		return nil, errorf(InvalidArgument, "macaroon identifier must not be empty")
	}
	dk := deriveRootKey(userSecret)
	m := &Macaroon{
		location:   location,
		identifier: append([]byte(nil), identifier...),
		sig:        hmacSum(dk[:], identifier),
	}
	return m, nil
}

// Clone returns an independent copy of m; mutating the result does not
// affect m and vice versa.
func (m *Macaroon) Clone() *Macaroon {
	m1 := &Macaroon{
		location:   m.location,
		identifier: append([]byte(nil), m.identifier...),
		sig:        m.sig,
	}
	if len(m.caveats) > 0 {
		m1.caveats = make([]Caveat, len(m.caveats))
		for i, cav := range m.caveats {
			m1.caveats[i] = cav.clone()
		}
	}
	return m1
}

// Location returns the macaroon's location hint. It is advisory only
// and is not covered by the signature.
func (m *Macaroon) Location() string {
	return m.location
}

// Id returns the macaroon's identifier.
func (m *Macaroon) Id() []byte {
	return append([]byte(nil), m.identifier...)
}

// Signature returns the macaroon's current signature.
func (m *Macaroon) Signature() [keyLen]byte {
	return m.sig
}

// Caveats returns a copy of the macaroon's caveats, in signature order.
func (m *Macaroon) Caveats() []Caveat {
	if len(m.caveats) == 0 {
		return nil
	}
	caveats := make([]Caveat, len(m.caveats))
	for i, cav := range m.caveats {
		caveats[i] = cav.clone()
	}
	return caveats
}

// AddFirstPartyCaveat appends a first-party caveat with the given
// predicate, updating the signature to HMAC(oldSignature, predicate).
func (m *Macaroon) AddFirstPartyCaveat(predicate []byte) error {
	if len(predicate) == 0 {
		return errorf(InvalidArgument, "first-party caveat predicate must not be empty")
	}
	m.sig = hmacSum(m.sig[:], predicate)
	m.caveats = append(m.caveats, Caveat{Id: append([]byte(nil), predicate...)})
	return nil
}

// AddThirdPartyCaveat appends a third-party caveat that must be
// discharged by a macaroon minted at location with the given root
// secret and caveat id. The key derived from dischargeSecret is sealed
// against the macaroon's current signature so that only a holder of that
// signature (i.e. the macaroon itself, at verification time) can
// recover it.
func (m *Macaroon) AddThirdPartyCaveat(location string, dischargeSecret, caveatId []byte) error {
	return m.addThirdPartyCaveatWithRand(location, dischargeSecret, caveatId, rand.Reader)
}

func (m *Macaroon) addThirdPartyCaveatWithRand(location string, dischargeSecret, caveatId []byte, r io.Reader) error {
	if len(caveatId) == 0 {
		return errorf(InvalidArgument, "third-party caveat id must not be empty")
	}
	dk := deriveRootKey(dischargeSecret)
	vid, err := seal(m.sig, dk[:], r)
	if err != nil {
		return wrapf(err, DecryptError, "cannot seal third-party caveat verification id")
	}
	m.sig = hmacChain(m.sig[:], vid, caveatId)
	m.caveats = append(m.caveats, Caveat{
		Id:             append([]byte(nil), caveatId...),
		VerificationId: vid,
		Location:       location,
	})
	return nil
}

// Bind prepares discharge for use alongside m: it rewrites discharge's
// signature so that it can only ever be presented together with a
// macaroon whose final signature is m.Signature(). Bind must be called
// before the discharge is added to a Verifier.
func (m *Macaroon) Bind(discharge *Macaroon) {
	discharge.bindToRoot(m.sig)
}

func (m *Macaroon) bindToRoot(rootSig [keyLen]byte) {
	m.sig = bindSignature(rootSig, m.sig)
}

// bindSignature computes HMAC(zeros32, rootSig || dischargeSig), the
// discharge-binding transform from the macaroon paper.
func bindSignature(rootSig, dischargeSig [keyLen]byte) [keyLen]byte {
	var zero [keyLen]byte
	buf := make([]byte, 0, 2*keyLen)
	buf = append(buf, rootSig[:]...)
	buf = append(buf, dischargeSig[:]...)
	return hmacSum(zero[:], buf)
}
