package bigint_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/n3-core/node/pkg/encoding/bigint"
)

func TestRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, 128, -128, -129, 255, 256, 1 << 20, -(1 << 20)}
	for _, c := range cases {
		n := big.NewInt(c)
		got := bigint.FromBytes(bigint.ToBytes(n))
		assert.Equal(t, n.String(), got.String(), "round trip for %d", c)
	}
}

func TestZeroEncodesEmpty(t *testing.T) {
	assert.Empty(t, bigint.ToBytes(big.NewInt(0)))
	assert.Equal(t, int64(0), bigint.FromBytes(nil).Int64())
}

func TestMinimalEncodingNoRedundantSignByte(t *testing.T) {
	// 127 fits in a single positive byte (0x7f); it must not gain a
	// leading zero sign-extension byte.
	assert.Equal(t, []byte{0x7f}, bigint.ToBytes(big.NewInt(127)))
	// 128 needs a sign-extension byte to stay non-negative (0x80,0x00 LE).
	assert.Equal(t, []byte{0x80, 0x00}, bigint.ToBytes(big.NewInt(128)))
	// -1 is the single byte 0xff in two's complement.
	assert.Equal(t, []byte{0xff}, bigint.ToBytes(big.NewInt(-1)))
}

func TestLargeValuesRoundTrip(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), 255)
	got := bigint.FromBytes(bigint.ToBytes(n))
	assert.Equal(t, n.String(), got.String())

	neg := new(big.Int).Neg(n)
	got = bigint.FromBytes(bigint.ToBytes(neg))
	assert.Equal(t, neg.String(), got.String())
}
