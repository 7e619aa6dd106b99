package macaroon

import (
	"strings"

	gc "gopkg.in/check.v1"
)

type marshalSuite struct{}

var _ = gc.Suite(&marshalSuite{})

func testMacaroon(c *gc.C) *Macaroon {
	m, err := Create("a location", []byte("secret"), []byte("some id"))
	c.Assert(err, gc.IsNil)
	c.Assert(m.AddFirstPartyCaveat([]byte("account = 3735928559")), gc.IsNil)
	c.Assert(m.addThirdPartyCaveatWithRand("remote.com", []byte("shared root key"), []byte("3rd party caveat"), fixedReader{}), gc.IsNil)
	return m
}

// fixedReader is a deterministic source of "randomness" so that
// verification-id ciphertexts are reproducible across test runs.
type fixedReader struct{}

func (fixedReader) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = byte(i)
	}
	return len(buf), nil
}

func (*marshalSuite) TestV1RoundTrip(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV1(m)
	c.Assert(err, gc.IsNil)
	m1, err := deserializeV1(data)
	c.Assert(err, gc.IsNil)
	c.Assert(m1.Signature(), gc.Equals, m.Signature())
	c.Assert(m1.Caveats(), gc.DeepEquals, m.Caveats())
}

func (*marshalSuite) TestV1AcceptsAllBase64Alphabets(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV1(m)
	c.Assert(err, gc.IsNil)

	padded := string(data) + strings.Repeat("=", (4-len(data)%4)%4)
	stdAlphabet := strings.NewReplacer("-", "+", "_", "/").Replace(padded)

	for _, variant := range []string{string(data), padded, stdAlphabet} {
		m1, err := deserializeV1([]byte(variant))
		c.Assert(err, gc.IsNil)
		c.Assert(m1.Signature(), gc.Equals, m.Signature())
	}
}

func (*marshalSuite) TestV2RoundTrip(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV2(m)
	c.Assert(err, gc.IsNil)
	c.Assert(data[0], gc.Equals, v2Version)
	m1, err := deserializeV2(data)
	c.Assert(err, gc.IsNil)
	c.Assert(m1.Signature(), gc.Equals, m.Signature())
	c.Assert(m1.Caveats(), gc.DeepEquals, m.Caveats())
}

func (*marshalSuite) TestV2TruncatedData(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV2(m)
	c.Assert(err, gc.IsNil)
	for i := 0; i < len(data); i++ {
		_, err := deserializeV2(data[:i])
		c.Assert(err, gc.NotNil)
	}
}

func (*marshalSuite) TestV2VarintOverflow(c *gc.C) {
	data := []byte{v2Version, v2TagIdentifier}
	for i := 0; i < 10; i++ {
		data = append(data, 0x80)
	}
	_, err := deserializeV2(data)
	c.Assert(err, gc.ErrorMatches, "varint overflow")
}

func (*marshalSuite) TestV2UnexpectedTag(c *gc.C) {
	data := []byte{v2Version, 0x05, 0x00}
	_, err := deserializeV2(data)
	c.Assert(err, gc.ErrorMatches, "expected macaroon identifier field")
}

func (*marshalSuite) TestV2JRoundTrip(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV2J(m)
	c.Assert(err, gc.IsNil)
	c.Assert(data[0], gc.Equals, byte('{'))
	m1, err := deserializeV2J(data)
	c.Assert(err, gc.IsNil)
	c.Assert(m1.Signature(), gc.Equals, m.Signature())
	c.Assert(m1.Caveats(), gc.DeepEquals, m.Caveats())
}

func (*marshalSuite) TestV2JNeverEmitsPlainVariants(c *gc.C) {
	m := testMacaroon(c)
	data, err := serializeV2J(m)
	c.Assert(err, gc.IsNil)
	s := string(data)
	// The only plain "v" key is the top-level version field; no caveat
	// carries a plain verification id.
	c.Assert(strings.Count(s, `"v":`), gc.Equals, 1)
	c.Assert(strings.Contains(s, `"i":`), gc.Equals, false)
	c.Assert(strings.Contains(s, `"l":`), gc.Equals, false)
	c.Assert(strings.Contains(s, `"s":`), gc.Equals, false)
}

func (*marshalSuite) TestV2JRejectsConflictingFieldPair(c *gc.C) {
	data := []byte(`{"v":2,"i":"some id","i64":"c29tZSBpZA","s64":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}`)
	_, err := deserializeV2J(data)
	c.Assert(err, gc.ErrorMatches, "V2J macaroon has both i and i64 fields")
}

func (*marshalSuite) TestV2JAcceptsPlainFields(c *gc.C) {
	data := []byte(`{"v":2,"i":"some id","s64":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}`)
	m, err := deserializeV2J(data)
	c.Assert(err, gc.IsNil)
	c.Assert(m.Id(), gc.DeepEquals, []byte("some id"))
}

func (*marshalSuite) TestDeserializeDetectsFormat(c *gc.C) {
	m := testMacaroon(c)

	v1, err := serializeV1(m)
	c.Assert(err, gc.IsNil)
	v2, err := serializeV2(m)
	c.Assert(err, gc.IsNil)
	v2j, err := serializeV2J(m)
	c.Assert(err, gc.IsNil)

	for _, data := range [][]byte{v1, v2, v2j} {
		m1, err := Deserialize(data)
		c.Assert(err, gc.IsNil)
		c.Assert(m1.Signature(), gc.Equals, m.Signature())
	}
}

func (*marshalSuite) TestDeserializeUnknownFormat(c *gc.C) {
	_, err := Deserialize([]byte("\x01not a macaroon"))
	kind, ok := Cause(err)
	c.Assert(ok, gc.Equals, true)
	c.Assert(kind, gc.Equals, UnknownFormat)
}

func (*marshalSuite) TestDeserializeEmpty(c *gc.C) {
	_, err := Deserialize(nil)
	kind, ok := Cause(err)
	c.Assert(ok, gc.Equals, true)
	c.Assert(kind, gc.Equals, UnknownFormat)
}
