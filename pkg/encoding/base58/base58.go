// Package base58 wraps github.com/mr-tron/base58 with the
// checksum-appending variant ("Base58Check") used throughout Neo for
// addresses and WIF-encoded keys.
package base58

import (
	"bytes"
	"errors"

	"github.com/mr-tron/base58"
	"github.com/n3-core/node/pkg/crypto/hash"
)

// Encode encodes b as plain Base58.
func Encode(b []byte) string {
	return base58.Encode(b)
}

// Decode decodes a plain Base58 string.
func Decode(s string) ([]byte, error) {
	return base58.Decode(s)
}

// CheckEncode appends a 4-byte Hash256 checksum to b and Base58-encodes
// the result.
func CheckEncode(b []byte) string {
	csum := hash.Checksum(b)
	buf := make([]byte, len(b)+4)
	copy(buf, b)
	buf[len(b)] = byte(csum)
	buf[len(b)+1] = byte(csum >> 8)
	buf[len(b)+2] = byte(csum >> 16)
	buf[len(b)+3] = byte(csum >> 24)
	return Encode(buf)
}

// ErrInvalidChecksum is returned by CheckDecode when the trailing 4 bytes
// don't match Hash256 of the payload.
var ErrInvalidChecksum = errors.New("invalid checksum")

// CheckDecode reverses CheckEncode, validating and stripping the checksum.
func CheckDecode(s string) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) < 5 {
		return nil, errors.New("invalid base58check payload")
	}
	payload, csum := b[:len(b)-4], b[len(b)-4:]
	expect := hash.Checksum(payload)
	want := []byte{byte(expect), byte(expect >> 8), byte(expect >> 16), byte(expect >> 24)}
	if !bytes.Equal(csum, want) {
		return nil, ErrInvalidChecksum
	}
	return payload, nil
}
