// Package keys implements ECPoint public/private key pairs, WIF
// encoding, and signature verification (spec §9 "ECPoint"). NEP-2 key
// encryption lives in pkg/wallet.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/encoding/address"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/opcode"
)

// Curve is the default signature curve (spec §9: "secp256r1 default").
func Curve() elliptic.Curve { return elliptic.P256() }

// CurveSecp256k1 is the alternate curve CryptoLib.verifyWithECDsa accepts
// alongside the default secp256r1 (spec §4.E.8 "verify_with_ecdsa").
func CurveSecp256k1() elliptic.Curve { return secp256k1.S256() }

// PublicKeys is a sortable list of public keys, used to build
// verification/multisig scripts in canonical order.
type PublicKeys []*PublicKey

func (p PublicKeys) Len() int      { return len(p) }
func (p PublicKeys) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p PublicKeys) Less(i, j int) bool {
	if c := p[i].X.Cmp(p[j].X); c != 0 {
		return c < 0
	}
	return p[i].Y.Cmp(p[j].Y) < 0
}

// PublicKey is a point on Curve, serialisable the way a verification
// script's CheckSig operand is (spec §9).
type PublicKey struct {
	X, Y *big.Int
}

// infinityPrefix is the single-byte encoding of the point at infinity.
const infinityPrefix = 0x00

// NewPublicKeyFromBytes decodes a compressed (33 bytes), uncompressed
// (65 bytes) or infinity (1 byte) encoding on the default curve.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	return NewPublicKeyFromBytesCurve(b, Curve())
}

// NewPublicKeyFromBytesCurve decodes b as a point on curve, used by
// CryptoLib.verifyWithECDsa's secp256k1 path (spec §4.E.8).
func NewPublicKeyFromBytesCurve(b []byte, curve elliptic.Curve) (*PublicKey, error) {
	if len(b) == 0 {
		return nil, errors.New("keys: empty public key encoding")
	}
	switch b[0] {
	case infinityPrefix:
		return &PublicKey{}, nil
	case 0x02, 0x03:
		if len(b) != 33 {
			return nil, fmt.Errorf("keys: invalid compressed public key length %d", len(b))
		}
		x := new(big.Int).SetBytes(b[1:])
		y, err := decompressY(curve, x, uint(b[0]&0x1))
		if err != nil {
			return nil, err
		}
		return &PublicKey{X: x, Y: y}, nil
	case 0x04:
		if len(b) != 65 {
			return nil, fmt.Errorf("keys: invalid uncompressed public key length %d", len(b))
		}
		return &PublicKey{X: new(big.Int).SetBytes(b[1:33]), Y: new(big.Int).SetBytes(b[33:65])}, nil
	default:
		return nil, fmt.Errorf("keys: invalid public key prefix 0x%02x", b[0])
	}
}

// decompressY recovers the Y coordinate of a point on c given X and the
// parity bit stored in the compressed encoding's prefix.
func decompressY(c elliptic.Curve, x *big.Int, yBit uint) (*big.Int, error) {
	params := c.Params()
	x3 := new(big.Int).Mul(x, x)
	x3.Mul(x3, x)
	y2 := new(big.Int).Set(x3)
	if params.Name == "secp256k1" {
		// y^2 = x^3 + 7 (mod p), secp256k1's a=0 short Weierstrass form.
		y2.Add(y2, params.B)
	} else {
		// y^2 = x^3 - 3x + b (mod p), the a=-3 form used by P-256/P-384/P-521.
		threeX := new(big.Int).Lsh(x, 1)
		threeX.Add(threeX, x)
		y2.Sub(y2, threeX)
		y2.Add(y2, params.B)
	}
	y2.Mod(y2, params.P)

	y := new(big.Int).ModSqrt(y2, params.P)
	if y == nil {
		return nil, errors.New("keys: point is not on the curve")
	}
	if y.Bit(0) != yBit {
		y.Sub(params.P, y)
	}
	return y, nil
}

// Bytes encodes p in compressed form, or a single 0x00 for the point at
// infinity.
func (p *PublicKey) Bytes() []byte {
	if p.X == nil || p.Y == nil {
		return []byte{infinityPrefix}
	}
	prefix := byte(0x02)
	if p.Y.Bit(0) != 0 {
		prefix = 0x03
	}
	x := p.X.Bytes()
	padded := make([]byte, 32)
	copy(padded[32-len(x):], x)
	return append([]byte{prefix}, padded...)
}

// Uncompressed encodes p in the 65-byte 0x04||X||Y form.
func (p *PublicKey) Uncompressed() []byte {
	x := make([]byte, 32)
	y := make([]byte, 32)
	p.X.FillBytes(x)
	p.Y.FillBytes(y)
	return append(append([]byte{0x04}, x...), y...)
}

// ScriptHash returns the Hash160 of the single-key verification script
// built from p (spec §9 "ScriptHash").
func (p *PublicKey) ScriptHash() util.Uint160 {
	return hash.Hash160(SignatureRedeemScript(p))
}

// Address renders p's script hash as a Base58Check address for version.
func (p *PublicKey) Address(version byte) string {
	return address.Uint160ToString(p.ScriptHash(), version)
}

// Equal reports whether p and o are the same point.
func (p *PublicKey) Equal(o *PublicKey) bool {
	if p.X == nil || o.X == nil {
		return p.X == nil && o.X == nil
	}
	return p.X.Cmp(o.X) == 0 && p.Y.Cmp(o.Y) == 0
}

// Verify checks sig (the concatenated 64-byte r||s encoding used on the
// wire) against digest using p on the default curve.
func (p *PublicKey) Verify(sig, digest []byte) bool {
	return p.VerifyCurve(Curve(), sig, digest)
}

// VerifyCurve is Verify against an explicit curve, used for
// CryptoLib.verifyWithECDsa's secp256k1 path (spec §4.E.8).
func (p *PublicKey) VerifyCurve(curve elliptic.Curve, sig, digest []byte) bool {
	if len(sig) != 64 || p.X == nil {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: p.X, Y: p.Y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pub, digest, r, s)
}

// String renders p's compressed hex encoding.
func (p *PublicKey) String() string {
	return fmt.Sprintf("%x", p.Bytes())
}

// Cmp orders p against o the way PublicKeys.Less does, for callers that
// need a three-way comparator.
func (p *PublicKey) Cmp(o *PublicKey) int {
	if c := p.X.Cmp(o.X); c != 0 {
		return c
	}
	return p.Y.Cmp(o.Y)
}

// SignatureRedeemScript builds the single-signature verification script a
// standard account's ScriptHash is derived from: push the compressed
// public key, then invoke System.Crypto.CheckSig (spec §9 "ScriptHash").
func SignatureRedeemScript(p *PublicKey) []byte {
	pub := p.Bytes()
	script := make([]byte, 0, 2+len(pub)+5)
	script = append(script, byte(opcode.PUSHDATA1), byte(len(pub)))
	script = append(script, pub...)
	script = append(script, byte(opcode.SYSCALL))
	script = append(script, syscallID("System.Crypto.CheckSig")...)
	return script
}

// syscallID derives the 4-byte little-endian interop identifier from its
// name, matching the VM's SYSCALL operand convention.
func syscallID(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, binary.LittleEndian.Uint32(sum[:4]))
	return id
}
