// Package hash implements the node's hash primitives: SHA-256,
// RIPEMD-160, and their Neo-specific compositions Hash256/Hash160, plus
// Merkle root computation (spec §4.A).
package hash

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/n3-core/node/pkg/util"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // stdlib has no RIPEMD-160.
)

// Hashable is implemented by anything that can produce the byte sequence
// hashed to derive its identity (transactions, blocks, headers).
type Hashable interface {
	Hash() util.Uint256
}

// Sha256 computes a single SHA-256 digest.
func Sha256(b []byte) util.Uint256 {
	h := sha256.Sum256(b)
	return util.Uint256(h)
}

// DoubleSha256 computes SHA-256 twice, as Hash256 does, exposed under its
// own name for callers working purely in terms of SHA-256.
func DoubleSha256(b []byte) util.Uint256 {
	return Sha256(Sha256(b).BytesBE())
}

// Hash256 is Neo's standard double-SHA-256 content hash.
func Hash256(b []byte) util.Uint256 {
	return DoubleSha256(b)
}

// RipeMD160 computes a RIPEMD-160 digest, zero-padded into a Uint160.
func RipeMD160(b []byte) util.Uint160 {
	h := ripemd160.New()
	_, _ = h.Write(b)
	sum := h.Sum(nil)
	var u util.Uint160
	copy(u[:], sum)
	return u
}

// Hash160 is Neo's script-hash function: RIPEMD160(SHA256(b)).
func Hash160(b []byte) util.Uint160 {
	sh := Sha256(b)
	return RipeMD160(sh.BytesBE())
}

// Checksum returns the first 4 bytes of Hash256(b) interpreted as a
// little-endian uint32, used by Base58Check and the wire message envelope.
func Checksum(b []byte) uint32 {
	h := Hash256(b)
	return binary.LittleEndian.Uint32(h.BytesBE()[:4])
}
