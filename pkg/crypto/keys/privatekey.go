package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/rfc6979"

	"github.com/n3-core/node/pkg/encoding/address"
)

// PrivateKey wraps an ECDSA private key on Curve.
type PrivateKey struct {
	ecdsa.PrivateKey
}

// NewPrivateKey generates a fresh key pair.
func NewPrivateKey() (*PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(Curve(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: *priv}, nil
}

// NewPrivateKeyFromBytes builds a key from its raw 32-byte big-endian
// scalar.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("keys: invalid private key length %d", len(b))
	}
	priv := new(ecdsa.PrivateKey)
	priv.D = new(big.Int).SetBytes(b)
	priv.PublicKey.Curve = Curve()
	priv.PublicKey.X, priv.PublicKey.Y = Curve().ScalarBaseMult(b)
	return &PrivateKey{PrivateKey: *priv}, nil
}

// NewPrivateKeyFromHex decodes a hex-encoded 32-byte scalar.
func NewPrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// Bytes returns the raw 32-byte big-endian scalar.
func (p *PrivateKey) Bytes() []byte {
	b := make([]byte, 32)
	p.D.FillBytes(b)
	return b
}

// PublicKey derives the corresponding public key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{X: p.X, Y: p.Y}
}

// Sign produces a deterministic (RFC 6979) signature over sha256(data),
// returned as the 64-byte r||s encoding used on the wire.
func (p *PrivateKey) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	r, s := rfc6979.SignECDSA(&p.PrivateKey, digest[:], sha256.New)
	if r == nil || s == nil {
		return nil, errors.New("keys: signing failed")
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// Address renders the public key's script hash as a Base58Check address
// for the given network version byte.
func (p *PrivateKey) Address(version byte) string {
	return address.Uint160ToString(p.PublicKey().ScriptHash(), version)
}

// String renders the private key's 32-byte scalar as lowercase hex.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// ErrInvalidWIF is returned by NewPrivateKeyFromWIF on a malformed WIF.
var ErrInvalidWIF = errors.New("keys: invalid WIF")

// wifVersion and wifCompressed are the standard (non-Neo-specific)
// Bitcoin-derived WIF encoding bytes Neo reuses for private key export.
const (
	wifVersion    = 0x80
	wifCompressed = 0x01
)

// WIF encodes p in the standard compressed Wallet Import Format: a
// Base58Check string of version||scalar||compressed-flag.
func (p *PrivateKey) WIF() string {
	buf := make([]byte, 0, 34)
	buf = append(buf, wifVersion)
	buf = append(buf, p.Bytes()...)
	buf = append(buf, wifCompressed)
	checksum := doubleSHA256(buf)
	buf = append(buf, checksum[:4]...)
	return base58.Encode(buf)
}

// NewPrivateKeyFromWIF decodes a compressed WIF string produced by WIF.
func NewPrivateKeyFromWIF(wif string) (*PrivateKey, error) {
	b, err := base58.Decode(wif)
	if err != nil {
		return nil, ErrInvalidWIF
	}
	if len(b) != 38 || b[0] != wifVersion || b[33] != wifCompressed {
		return nil, ErrInvalidWIF
	}
	payload, checksum := b[:34], b[34:]
	want := doubleSHA256(payload)
	if !bytesEqual(want[:4], checksum) {
		return nil, ErrInvalidWIF
	}
	return NewPrivateKeyFromBytes(b[1:33])
}

func doubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
