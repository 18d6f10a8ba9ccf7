package native_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func TestCryptoLibSha256AndRipemd160(t *testing.T) {
	c := native.NewCryptoLib()
	data := []byte("neo")

	got, err := c.Invoke(nil, "sha256", []stackitem.Item{stackitem.NewByteString(data)})
	require.NoError(t, err)
	want := hash.Sha256(data)
	b, _ := got.TryBytes()
	assert.Equal(t, want.BytesBE(), b)

	got, err = c.Invoke(nil, "ripemd160", []stackitem.Item{stackitem.NewByteString(data)})
	require.NoError(t, err)
	wantR := hash.RipeMD160(data)
	b, _ = got.TryBytes()
	assert.Equal(t, wantR.BytesBE(), b)
}

func TestCryptoLibVerifyWithECDsaSecp256r1(t *testing.T) {
	c := native.NewCryptoLib()
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	msg := []byte("message")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)

	args := []stackitem.Item{
		stackitem.NewByteString(msg),
		stackitem.NewByteString(priv.PublicKey().Bytes()),
		stackitem.NewByteString(sig),
		bigIntItem(t, 22), // namedCurveSecp256r1SHA256
	}
	got, err := c.Invoke(nil, "verifyWithECDsa", args)
	require.NoError(t, err)
	assert.True(t, got.Bool())

	// Tampering with the message must fail verification.
	args[0] = stackitem.NewByteString([]byte("tampered"))
	got, err = c.Invoke(nil, "verifyWithECDsa", args)
	require.NoError(t, err)
	assert.False(t, got.Bool())
}

func TestCryptoLibMurmur32(t *testing.T) {
	c := native.NewCryptoLib()
	args := []stackitem.Item{
		stackitem.NewByteString([]byte("neo")),
		bigIntItem(t, 0),
	}
	got, err := c.Invoke(nil, "murmur32", args)
	require.NoError(t, err)
	b, err := got.TryBytes()
	require.NoError(t, err)
	assert.Len(t, b, 4)
}

func bigIntItem(t *testing.T, v int64) stackitem.Item {
	t.Helper()
	it, err := stackitem.NewBigInteger(big.NewInt(v))
	require.NoError(t, err)
	return it
}
