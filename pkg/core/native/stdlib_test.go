package native_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func TestStdLibItoaAtoiRoundTrip(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()

	str, err := s.Invoke(ic, "itoa", []stackitem.Item{intItem(t, 255), intItem(t, 16)})
	require.NoError(t, err)
	b, err := str.TryBytes()
	require.NoError(t, err)
	assert.Equal(t, "ff", string(b))

	back, err := s.Invoke(ic, "atoi", []stackitem.Item{stackitem.NewByteString([]byte("ff")), intItem(t, 16)})
	require.NoError(t, err)
	v, _ := back.TryInteger()
	assert.Equal(t, int64(255), v.Int64())
}

func TestStdLibBase58CheckRoundTrip(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()
	data := []byte{0x17, 0x01, 0x02, 0x03}

	enc, err := s.Invoke(ic, "base58CheckEncode", []stackitem.Item{stackitem.NewByteString(data)})
	require.NoError(t, err)
	encBytes, _ := enc.TryBytes()

	dec, err := s.Invoke(ic, "base58CheckDecode", []stackitem.Item{stackitem.NewByteString(encBytes)})
	require.NoError(t, err)
	decBytes, _ := dec.TryBytes()
	assert.Equal(t, data, decBytes)
}

func TestStdLibBase64RoundTrip(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()
	data := []byte("hello neo")

	enc, err := s.Invoke(ic, "base64Encode", []stackitem.Item{stackitem.NewByteString(data)})
	require.NoError(t, err)
	encBytes, _ := enc.TryBytes()

	dec, err := s.Invoke(ic, "base64Decode", []stackitem.Item{stackitem.NewByteString(encBytes)})
	require.NoError(t, err)
	decBytes, _ := dec.TryBytes()
	assert.Equal(t, data, decBytes)
}

func TestStdLibJSONRoundTrip(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()

	ser, err := s.Invoke(ic, "jsonSerialize", []stackitem.Item{intItem(t, 42)})
	require.NoError(t, err)
	serBytes, _ := ser.TryBytes()

	deser, err := s.Invoke(ic, "jsonDeserialize", []stackitem.Item{stackitem.NewByteString(serBytes)})
	require.NoError(t, err)
	v, _ := deser.TryInteger()
	assert.Equal(t, int64(42), v.Int64())
}

func TestStdLibMemoryCompare(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()

	got, err := s.Invoke(ic, "memoryCompare", []stackitem.Item{
		stackitem.NewByteString([]byte("abc")),
		stackitem.NewByteString([]byte("abd")),
	})
	require.NoError(t, err)
	v, _ := got.TryInteger()
	assert.True(t, v.Sign() < 0)
}

func TestStdLibStringLenCountsRunes(t *testing.T) {
	s := native.NewStdLib()
	ic := newTestContext()

	got, err := s.Invoke(ic, "stringLen", []stackitem.Item{stackitem.NewByteString([]byte("héllo"))})
	require.NoError(t, err)
	v, _ := got.TryInteger()
	assert.Equal(t, int64(5), v.Int64())
}
