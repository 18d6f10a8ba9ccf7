// Package bigint implements the VM's minimal two's-complement
// little-endian BigInteger encoding (spec §3.1): the shortest byte
// sequence that round-trips through sign-extension.
package bigint

import "math/big"

// ToBytes encodes n as minimal two's-complement little-endian bytes. Zero
// encodes to an empty slice.
func ToBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{}
	}
	bs := n.Bytes() // big-endian magnitude
	if n.Sign() > 0 {
		if bs[0]&0x80 != 0 {
			bs = append([]byte{0}, bs...)
		}
		reverse(bs)
		return bs
	}
	// Negative: two's complement of the minimal-length magnitude.
	nbits := new(big.Int).Not(n).BitLen() + 1 // bits of |n|-1, + sign bit
	nbytes := (nbits + 7) / 8
	twos := new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(nbytes*8)))
	b := twos.Bytes()
	out := make([]byte, nbytes)
	copy(out[nbytes-len(b):], b)
	reverse(out)
	return out
}

// FromBytes decodes a minimal two's-complement little-endian byte slice
// back into a big.Int.
func FromBytes(data []byte) *big.Int {
	if len(data) == 0 {
		return big.NewInt(0)
	}
	be := make([]byte, len(data))
	copy(be, data)
	reverse(be)
	neg := be[0]&0x80 != 0
	if !neg {
		return new(big.Int).SetBytes(be)
	}
	v := new(big.Int).SetBytes(be)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
	return v.Sub(v, mod)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
