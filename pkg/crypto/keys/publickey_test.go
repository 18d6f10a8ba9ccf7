package keys_test

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/crypto/keys"
)

func TestPublicKeyCompressedRoundTrip(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub := priv.PublicKey()

	decoded, err := keys.NewPublicKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	assert.True(t, pub.Equal(decoded))

	decodedUncompressed, err := keys.NewPublicKeyFromBytes(pub.Uncompressed())
	require.NoError(t, err)
	assert.True(t, pub.Equal(decodedUncompressed))
}

func TestPublicKeyInfinity(t *testing.T) {
	pub, err := keys.NewPublicKeyFromBytes([]byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, pub.Bytes())
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	msg := []byte("hello neo")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)

	digest := sha256.Sum256(msg)
	assert.True(t, priv.PublicKey().Verify(sig, digest[:]))
	assert.False(t, priv.PublicKey().Verify(sig, sha256.Sum256([]byte("tampered"))[:]))
}

func TestWIFRoundTrip(t *testing.T) {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	wif := priv.WIF()

	decoded, err := keys.NewPrivateKeyFromWIF(wif)
	require.NoError(t, err)
	assert.Equal(t, priv.Bytes(), decoded.Bytes())
}

func TestVerifyCurveSecp256k1(t *testing.T) {
	ecdsaPriv, err := ecdsa.GenerateKey(keys.CurveSecp256k1(), rand.Reader)
	require.NoError(t, err)
	priv := &keys.PrivateKey{PrivateKey: *ecdsaPriv}

	msg := []byte("cross-curve message")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)
	digest := sha256.Sum256(msg)

	pub, err := keys.NewPublicKeyFromBytesCurve(priv.PublicKey().Bytes(), keys.CurveSecp256k1())
	require.NoError(t, err)
	assert.True(t, pub.VerifyCurve(keys.CurveSecp256k1(), sig, digest[:]))
	assert.False(t, pub.VerifyCurve(keys.Curve(), sig, digest[:]))
}
