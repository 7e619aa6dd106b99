package macaroon

import (
	"bytes"
)

// The V1 text encoding is made from a sequence of "packets", each of
// which has a field tag and some value bytes. The encoding of a
// packet is:
//
//   - four ASCII hex digits holding the entire packet size, including
//     the four digits themselves.
//   - the field tag, followed by an ASCII space.
//   - the raw value.
//   - a trailing newline.
//
// Text field values are trimmed of trailing whitespace (most
// significantly the packet's own trailing newline) on read. The vid
// field only loses its single trailing newline, and the signature
// field's value is taken as exactly the first 32 raw bytes.

const (
	v1FieldLocation       = "location"
	v1FieldIdentifier     = "identifier"
	v1FieldSignature      = "signature"
	v1FieldCaveatId       = "cid"
	v1FieldVerificationId = "vid"
	v1FieldCaveatLocation = "cl"
)

const maxV1PacketLen = 0xffff

var hexDigits = []byte("0123456789abcdef")

// appendV1Packet appends the packet encoding of (field, value) to buf.
func appendV1Packet(buf []byte, field string, value []byte) ([]byte, error) {
	plen := 4 + len(field) + 1 + len(value) + 1
	if plen > maxV1PacketLen {
		return nil, errorf(InvalidArgument, "field %q is too long to encode as a V1 packet", field)
	}
	buf = appendHexSize(buf, plen)
	buf = append(buf, field...)
	buf = append(buf, ' ')
	buf = append(buf, value...)
	buf = append(buf, '\n')
	return buf, nil
}

func appendHexSize(buf []byte, size int) []byte {
	return append(buf,
		hexDigits[(size>>12)&0xf],
		hexDigits[(size>>8)&0xf],
		hexDigits[(size>>4)&0xf],
		hexDigits[size&0xf],
	)
}

func parseHexSize(data []byte) (int, bool) {
	var size int
	for _, b := range data[:4] {
		d, ok := asciiHexDigit(b)
		if !ok {
			return 0, false
		}
		size = size<<4 | d
	}
	return size, true
}

func asciiHexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 0xa, true
	}
	return 0, false
}

type v1Packet struct {
	field string
	value []byte
}

// parseV1Packet parses the single packet at the start of data,
// returning it and the number of bytes it occupied.
func parseV1Packet(data []byte) (v1Packet, int, error) {
	if len(data) < 6 {
		return v1Packet{}, 0, errorf(DeserializationError, "packet too short")
	}
	plen, ok := parseHexSize(data)
	if !ok {
		return v1Packet{}, 0, errorf(DeserializationError, "cannot parse packet length")
	}
	if plen > len(data) || plen < 6 {
		return v1Packet{}, 0, errorf(DeserializationError, "packet length out of range")
	}
	body := data[4:plen]
	i := bytes.IndexByte(body, ' ')
	if i <= 0 {
		return v1Packet{}, 0, errorf(DeserializationError, "cannot find field name in packet")
	}
	return v1Packet{
		field: string(body[:i]),
		value: body[i+1:],
	}, plen, nil
}

// trimV1Text strips the trailing newline (and any other trailing
// whitespace the packet's writer might have left) from a text-valued
// packet's value. It must never be applied to vid, whose value is raw
// secretbox ciphertext rather than text: a ciphertext that happens to
// end in a space or control byte would otherwise be corrupted.
func trimV1Text(value []byte) []byte {
	return bytes.TrimRight(value, " \t\r\n")
}

// stripPacketNewline removes the single trailing '\n' that
// appendV1Packet always writes after a packet's value, without
// touching any other trailing byte. This is the only trimming that is
// safe to apply to a binary-valued field such as vid.
func stripPacketNewline(value []byte) []byte {
	if n := len(value); n > 0 && value[n-1] == '\n' {
		return value[:n-1]
	}
	return value
}
