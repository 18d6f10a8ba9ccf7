package native

import (
	"crypto/elliptic"
	"fmt"

	"github.com/n3-core/node/pkg/bls12381"
	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/vm/stackitem"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/sha3"
)

// NamedCurveHash tags (curve, hash) pairs for CryptoLib.verifyWithECDsa,
// matching the reference client's enum (spec §4.E.8 / §4.F).
const (
	namedCurveSecp256r1SHA256    = 22
	namedCurveSecp256k1SHA256    = 23
	namedCurveSecp256r1Keccak256 = 24
	namedCurveSecp256k1Keccak256 = 25
)

// namedCurveHash resolves a NamedCurveHash tag into a curve and the
// digest of msg under that tag's hash algorithm.
func namedCurveHash(tag byte, msg []byte) (elliptic.Curve, []byte, error) {
	switch tag {
	case namedCurveSecp256r1SHA256:
		h := hash.Sha256(msg)
		return keys.Curve(), h.BytesBE(), nil
	case namedCurveSecp256k1SHA256:
		h := hash.Sha256(msg)
		return keys.CurveSecp256k1(), h.BytesBE(), nil
	case namedCurveSecp256r1Keccak256:
		return keys.Curve(), keccak256(msg), nil
	case namedCurveSecp256k1Keccak256:
		return keys.CurveSecp256k1(), keccak256(msg), nil
	default:
		return nil, nil, fmt.Errorf("native: unknown NamedCurveHash tag %d", tag)
	}
}

func keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// CryptoLib exposes hashing and signature/pairing primitives a contract
// cannot otherwise reach without a syscall (spec §4.E.8).
type CryptoLib struct {
	md *interop.ContractMD
}

// NewCryptoLib constructs the CryptoLib native.
func NewCryptoLib() *CryptoLib {
	c := &CryptoLib{}
	c.md = &interop.ContractMD{
		ID:   IDCryptoLib,
		Hash: nativeHash("CryptoLib"),
		Name: "CryptoLib",
		Methods: []interop.MethodDescriptor{
			{Name: "sha256", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "ripemd160", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "murmur32", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
			{Name: "keccak256", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "verifyWithECDsa", ParamCount: 4, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Serialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Deserialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Equal", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Add", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Mul", ParamCount: 3, RequiredFlags: callflag.None, Safe: true},
			{Name: "bls12381Pairing", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
		},
	}
	return c
}

// Metadata implements interop.Contract.
func (c *CryptoLib) Metadata() *interop.ContractMD { return c.md }

// OnPersist is a no-op: CryptoLib keeps no state.
func (c *CryptoLib) OnPersist(*interop.Context) error { return nil }

// PostPersist is a no-op for CryptoLib.
func (c *CryptoLib) PostPersist(*interop.Context) error { return nil }

// Invoke implements interop.Contract.
func (c *CryptoLib) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "sha256":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		h := hash.Sha256(b)
		return stackitem.NewByteString(h.BytesBE()), nil
	case "ripemd160":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		h := hash.RipeMD160(b)
		return stackitem.NewByteString(h.BytesBE()), nil
	case "keccak256":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(keccak256(b)), nil
	case "murmur32":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		seed, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		sum := murmur3.SeedSum32(uint32(seed.Int64()), b)
		out := []byte{byte(sum), byte(sum >> 8), byte(sum >> 16), byte(sum >> 24)}
		return stackitem.NewByteString(out), nil
	case "verifyWithECDsa":
		msg, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		pubBytes, err := arg(args, 1).TryBytes()
		if err != nil {
			return nil, err
		}
		sig, err := arg(args, 2).TryBytes()
		if err != nil {
			return nil, err
		}
		curveID, err := argInt(args, 3)
		if err != nil {
			return nil, err
		}
		curve, digest, err := namedCurveHash(byte(curveID.Int64()), msg)
		if err != nil {
			return stackitem.NewBool(false), nil
		}
		pub, err := keys.NewPublicKeyFromBytesCurve(pubBytes, curve)
		if err != nil {
			return stackitem.NewBool(false), nil
		}
		return stackitem.NewBool(pub.VerifyCurve(curve, sig, digest)), nil
	case "bls12381Serialize":
		return c.blsSerialize(args)
	case "bls12381Deserialize":
		return c.blsDeserialize(args)
	case "bls12381Equal":
		return c.blsEqual(args)
	case "bls12381Add":
		return c.blsAdd(args)
	case "bls12381Mul":
		return c.blsMul(args)
	case "bls12381Pairing":
		return c.blsPairing(args)
	default:
		return nil, errUnknownMethod
	}
}

func interopArg(args []stackitem.Item, i int) (bls12381.Point, error) {
	it, ok := arg(args, i).(*stackitem.Interop)
	if !ok {
		return nil, errUnknownMethod
	}
	p, ok := it.Value().(bls12381.Point)
	if !ok {
		return nil, errUnknownMethod
	}
	return p, nil
}

func (c *CryptoLib) blsSerialize(args []stackitem.Item) (stackitem.Item, error) {
	p, err := interopArg(args, 0)
	if err != nil {
		return nil, err
	}
	b, err := bls12381.ToBytes(p)
	if err != nil {
		return nil, err
	}
	return stackitem.NewByteString(b), nil
}

func (c *CryptoLib) blsDeserialize(args []stackitem.Item) (stackitem.Item, error) {
	b, err := arg(args, 0).TryBytes()
	if err != nil {
		return nil, err
	}
	p, err := bls12381.FromBytes(b)
	if err != nil {
		return nil, err
	}
	return stackitem.NewInterop(p), nil
}

func (c *CryptoLib) blsEqual(args []stackitem.Item) (stackitem.Item, error) {
	a, err := interopArg(args, 0)
	if err != nil {
		return nil, err
	}
	b, err := interopArg(args, 1)
	if err != nil {
		return nil, err
	}
	return stackitem.NewBool(bls12381.Equal(a, b)), nil
}

func (c *CryptoLib) blsAdd(args []stackitem.Item) (stackitem.Item, error) {
	a, err := interopArg(args, 0)
	if err != nil {
		return nil, err
	}
	b, err := interopArg(args, 1)
	if err != nil {
		return nil, err
	}
	sum, err := bls12381.Add(a, b)
	if err != nil {
		return nil, err
	}
	return stackitem.NewInterop(sum), nil
}

func (c *CryptoLib) blsMul(args []stackitem.Item) (stackitem.Item, error) {
	p, err := interopArg(args, 0)
	if err != nil {
		return nil, err
	}
	k, err := arg(args, 1).TryBytes()
	if err != nil {
		return nil, err
	}
	neg := arg(args, 2).Bool()
	res, err := bls12381.Mul(p, k, neg)
	if err != nil {
		return nil, err
	}
	return stackitem.NewInterop(res), nil
}

func (c *CryptoLib) blsPairing(args []stackitem.Item) (stackitem.Item, error) {
	a, err := interopArg(args, 0)
	if err != nil {
		return nil, err
	}
	b, err := interopArg(args, 1)
	if err != nil {
		return nil, err
	}
	g1, ok := a.(*bls12381.G1Affine)
	if !ok {
		return nil, errUnknownMethod
	}
	g2, ok := b.(*bls12381.G2Affine)
	if !ok {
		return nil, errUnknownMethod
	}
	res, err := bls12381.Pairing(g1, g2)
	if err != nil {
		return nil, err
	}
	return stackitem.NewInterop(res), nil
}
