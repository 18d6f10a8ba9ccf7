package base58_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/encoding/base58"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0xff, 0xaa, 0x55}
	s := base58.Encode(data)
	decoded, err := base58.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestCheckEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x17, 0xde, 0xad, 0xbe, 0xef}
	s := base58.CheckEncode(data)
	decoded, err := base58.CheckDecode(s)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestCheckDecodeInvalidChecksum(t *testing.T) {
	s := base58.CheckEncode([]byte{0x01, 0x02, 0x03})
	tampered := []byte(s)
	// Flip the last Base58 character to corrupt the checksum without
	// changing the string's length.
	last := tampered[len(tampered)-1]
	if last == 'z' {
		tampered[len(tampered)-1] = 'y'
	} else {
		tampered[len(tampered)-1] = 'z'
	}
	_, err := base58.CheckDecode(string(tampered))
	assert.Error(t, err)
}
