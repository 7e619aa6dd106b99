package macaroon

import gc "gopkg.in/check.v1"

type verifierSuite struct{}

var _ = gc.Suite(&verifierSuite{})

func (*verifierSuite) TestSatisfyExactDoesNotMatchOtherPredicates(c *gc.C) {
	v := NewVerifier()
	v.SatisfyExact([]byte("a = 1"))
	c.Assert(v.satisfiesFirstParty([]byte("a = 1")), gc.Equals, true)
	c.Assert(v.satisfiesFirstParty([]byte("a = 2")), gc.Equals, false)
}

func (*verifierSuite) TestSatisfyGeneralConsultedAfterExact(c *gc.C) {
	v := NewVerifier()
	v.SatisfyExact([]byte("a = 1"))
	calls := 0
	v.SatisfyGeneral(PredicateFunc(func(id []byte) bool {
		calls++
		return string(id) == "b = 2"
	}))
	c.Assert(v.satisfiesFirstParty([]byte("a = 1")), gc.Equals, true)
	c.Assert(calls, gc.Equals, 0)
	c.Assert(v.satisfiesFirstParty([]byte("b = 2")), gc.Equals, true)
	c.Assert(calls, gc.Equals, 1)
	c.Assert(v.satisfiesFirstParty([]byte("c = 3")), gc.Equals, false)
}

func (*verifierSuite) TestAddDischargeMacaroonsClones(c *gc.C) {
	dm, err := Create("bob", []byte("bob-key"), []byte("bob-is-great"))
	c.Assert(err, gc.IsNil)

	v := NewVerifier()
	v.AddDischargeMacaroons(dm)

	c.Assert(dm.AddFirstPartyCaveat([]byte("mutated after registration")), gc.IsNil)
	c.Assert(v.discharges[0].Caveats(), gc.HasLen, 0)
}

func (*verifierSuite) TestDischargesForMatchesById(c *gc.C) {
	d1, err := Create("bob", []byte("k1"), []byte("shared-id"))
	c.Assert(err, gc.IsNil)
	d2, err := Create("bob", []byte("k2"), []byte("shared-id"))
	c.Assert(err, gc.IsNil)
	d3, err := Create("bob", []byte("k3"), []byte("other-id"))
	c.Assert(err, gc.IsNil)

	v := NewVerifier()
	v.AddDischargeMacaroons(d1, d2, d3)
	matches := v.dischargesFor([]byte("shared-id"))
	c.Assert(matches, gc.HasLen, 2)
}

func (*verifierSuite) TestVerifyNilVerifierTreatsCaveatsAsUnmet(c *gc.C) {
	rootKey := []byte("secret")
	m, err := Create("loc", rootKey, []byte("id"))
	c.Assert(err, gc.IsNil)
	c.Assert(m.AddFirstPartyCaveat([]byte("anything")), gc.IsNil)

	ok, err := m.Verify(rootKey, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(ok, gc.Equals, false)
}

func (*verifierSuite) TestVerifyWrongRootKey(c *gc.C) {
	m, err := Create("loc", []byte("secret"), []byte("id"))
	c.Assert(err, gc.IsNil)
	ok, err := m.Verify([]byte("wrong secret"), NewVerifier())
	c.Assert(err, gc.IsNil)
	c.Assert(ok, gc.Equals, false)
}
