// Package bls12381 wraps github.com/consensys/gnark-crypto's BLS12-381
// curve implementation with the fixed-size serialize/deserialize,
// group-law, and pairing operations CryptoLib's bls12_381_* syscalls
// expose to contracts (spec §4.E.8).
package bls12381

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// Point is any of the three BLS12-381 element kinds a contract can hold:
// a G1 point, a G2 point, or a GT (pairing target group) element.
type Point interface {
	isBLSPoint()
}

// G1Affine is a point on the base curve, compressed to 48 bytes.
type G1Affine struct{ p bls12381.G1Affine }

func (*G1Affine) isBLSPoint() {}

// G2Affine is a point on the twist curve, compressed to 96 bytes.
type G2Affine struct{ p bls12381.G2Affine }

func (*G2Affine) isBLSPoint() {}

// GT is an element of the pairing target group, encoded as 576 bytes.
type GT struct{ v bls12381.GT }

func (*GT) isBLSPoint() {}

// ErrInvalidPoint is returned when a byte string doesn't decode into a
// valid curve point or field element.
var ErrInvalidPoint = errors.New("bls12381: invalid point encoding")

// FromBytes decodes b into a G1Affine, G2Affine, or GT element according
// to its length: 48/96 bytes compressed, 96/192 uncompressed, or 576
// bytes for GT, matching the reference client's size-based dispatch for
// bls12_381_deserialize.
func FromBytes(b []byte) (Point, error) {
	switch len(b) {
	case bls12381.SizeOfG1AffineCompressed, bls12381.SizeOfG1AffineUncompressed:
		var p bls12381.G1Affine
		if _, err := p.SetBytes(b); err != nil {
			return nil, ErrInvalidPoint
		}
		return &G1Affine{p: p}, nil
	case bls12381.SizeOfG2AffineCompressed, bls12381.SizeOfG2AffineUncompressed:
		var p bls12381.G2Affine
		if _, err := p.SetBytes(b); err != nil {
			return nil, ErrInvalidPoint
		}
		return &G2Affine{p: p}, nil
	case gtEncodedSize:
		gt, err := gtFromBytes(b)
		if err != nil {
			return nil, ErrInvalidPoint
		}
		return &GT{v: gt}, nil
	default:
		return nil, ErrInvalidPoint
	}
}

// gtEncodedSize is the byte length of a GT element: 12 Fp components of
// 48 bytes each.
const gtEncodedSize = 12 * 48

func gtFromBytes(b []byte) (bls12381.GT, error) {
	var gt bls12381.GT
	if len(b) != gtEncodedSize {
		return gt, ErrInvalidPoint
	}
	if err := gt.SetBytes(b); err != nil {
		return gt, ErrInvalidPoint
	}
	return gt, nil
}

// ToBytes encodes p in its canonical compressed (G1/G2) or fixed-width
// (GT) form.
func ToBytes(p Point) ([]byte, error) {
	switch v := p.(type) {
	case *G1Affine:
		b := v.p.Bytes()
		return b[:], nil
	case *G2Affine:
		b := v.p.Bytes()
		return b[:], nil
	case *GT:
		b := v.v.Bytes()
		return b[:], nil
	default:
		return nil, ErrInvalidPoint
	}
}

// Equal reports whether a and b are the same point/element of the same
// kind.
func Equal(a, b Point) bool {
	switch av := a.(type) {
	case *G1Affine:
		bv, ok := b.(*G1Affine)
		return ok && av.p.Equal(&bv.p)
	case *G2Affine:
		bv, ok := b.(*G2Affine)
		return ok && av.p.Equal(&bv.p)
	case *GT:
		bv, ok := b.(*GT)
		return ok && av.v.Equal(&bv.v)
	default:
		return false
	}
}

// Add computes a+b under the group law of a and b's shared kind.
func Add(a, b Point) (Point, error) {
	switch av := a.(type) {
	case *G1Affine:
		bv, ok := b.(*G1Affine)
		if !ok {
			return nil, ErrInvalidPoint
		}
		var aj, bj, sum bls12381.G1Jac
		aj.FromAffine(&av.p)
		bj.FromAffine(&bv.p)
		sum.Set(&aj).AddAssign(&bj)
		var out bls12381.G1Affine
		out.FromJacobian(&sum)
		return &G1Affine{p: out}, nil
	case *G2Affine:
		bv, ok := b.(*G2Affine)
		if !ok {
			return nil, ErrInvalidPoint
		}
		var aj, bj, sum bls12381.G2Jac
		aj.FromAffine(&av.p)
		bj.FromAffine(&bv.p)
		sum.Set(&aj).AddAssign(&bj)
		var out bls12381.G2Affine
		out.FromJacobian(&sum)
		return &G2Affine{p: out}, nil
	case *GT:
		bv, ok := b.(*GT)
		if !ok {
			return nil, ErrInvalidPoint
		}
		var out bls12381.GT
		out.Mul(&av.v, &bv.v)
		return &GT{v: out}, nil
	default:
		return nil, ErrInvalidPoint
	}
}

// Mul computes scalar multiplication p*k, or p^k for a GT element,
// negating the result first when neg is true.
func Mul(p Point, k []byte, neg bool) (Point, error) {
	scalar := new(big.Int).SetBytes(k)
	if neg {
		scalar.Neg(scalar)
	}
	switch v := p.(type) {
	case *G1Affine:
		var j bls12381.G1Jac
		j.FromAffine(&v.p)
		j.ScalarMultiplication(&j, scalar)
		var out bls12381.G1Affine
		out.FromJacobian(&j)
		return &G1Affine{p: out}, nil
	case *G2Affine:
		var j bls12381.G2Jac
		j.FromAffine(&v.p)
		j.ScalarMultiplication(&j, scalar)
		var out bls12381.G2Affine
		out.FromJacobian(&j)
		return &G2Affine{p: out}, nil
	case *GT:
		var out bls12381.GT
		out.Exp(v.v, scalar)
		return &GT{v: out}, nil
	default:
		return nil, ErrInvalidPoint
	}
}

// Pairing computes the optimal-ate pairing e(g1, g2), the operation
// bls12_381_pairing exposes for BLS signature verification circuits
// built on top of CryptoLib.
func Pairing(g1 *G1Affine, g2 *G2Affine) (*GT, error) {
	res, err := bls12381.Pair([]bls12381.G1Affine{g1.p}, []bls12381.G2Affine{g2.p})
	if err != nil {
		return nil, err
	}
	return &GT{v: res}, nil
}
