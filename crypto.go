package macaroon

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keyLen   = 32
	nonceLen = 24
)

// keyGenerator is the fixed key used to derive a macaroon's signing key
// from a caller-supplied root secret of any length: the ASCII string
// "macaroons-key-generator" padded with NUL bytes to 32 bytes.
var keyGenerator = func() [keyLen]byte {
	var k [keyLen]byte
	copy(k[:], "macaroons-key-generator")
	return k
}()

// deriveRootKey derives the 32-byte signing key used to mint or verify
// a macaroon from an arbitrary-length user secret. The same derivation
// is applied recursively to the discharge root key carried inside a
// third-party caveat.
func deriveRootKey(userSecret []byte) [keyLen]byte {
	return hmacSum(keyGenerator[:], userSecret)
}

func keyedHasher(key []byte) hash.Hash {
	return hmac.New(sha256.New, key)
}

// hmacSum computes HMAC-SHA256(key, msg).
func hmacSum(key, msg []byte) [keyLen]byte {
	h := keyedHasher(key)
	h.Write(msg)
	var sum [keyLen]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// hmacChain computes HMAC(key, HMAC(key,msg1) || HMAC(key,msg2)), the
// accumulation rule used when a third-party caveat is added to, or
// verified against, a macaroon's signature.
func hmacChain(key []byte, msg1, msg2 []byte) [keyLen]byte {
	t1 := hmacSum(key, msg1)
	t2 := hmacSum(key, msg2)
	both := make([]byte, 0, 2*keyLen)
	both = append(both, t1[:]...)
	both = append(both, t2[:]...)
	return hmacSum(key, both)
}

func secretboxKey(key []byte) *[keyLen]byte {
	var k [keyLen]byte
	copy(k[:], key)
	return &k
}

func newNonce(r io.Reader) (*[nonceLen]byte, error) {
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return nil, fmt.Errorf("cannot generate random nonce: %v", err)
	}
	return &nonce, nil
}

// seal encrypts plaintext under key using secretbox, prepending the
// randomly generated nonce to the returned ciphertext.
func seal(key [keyLen]byte, plaintext []byte, r io.Reader) ([]byte, error) {
	nonce, err := newNonce(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, nonceLen+secretbox.Overhead+len(plaintext))
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, nonce, secretboxKey(key[:])), nil
}

// open decrypts ciphertext produced by seal under key.
func open(key [keyLen]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceLen+secretbox.Overhead {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [nonceLen]byte
	copy(nonce[:], ciphertext[:nonceLen])
	plaintext, ok := secretbox.Open(nil, ciphertext[nonceLen:], &nonce, secretboxKey(key[:]))
	if !ok {
		return nil, fmt.Errorf("decryption failure")
	}
	return plaintext, nil
}

func constantTimeEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
