package payload_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/network/payload"
	"github.com/n3-core/node/pkg/util"
)

func TestEnvelopeRoundTripUncompressed(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	e, err := payload.NewEnvelope(0x334f454e, payload.CmdPing, raw, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0), e.Flags&payload.FlagCompressed)

	w := io.NewBufBinWriter()
	e.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	got := new(payload.Envelope)
	r := io.NewBinReaderFromBuf(w.Bytes())
	got.DecodeBinary(r)
	require.NoError(t, r.Err)
	assert.Equal(t, e.Magic, got.Magic)
	assert.Equal(t, e.Command, got.Command)
	assert.Equal(t, raw, got.Payload)
}

func TestEnvelopeCompressesLargePayloadAndDecompresses(t *testing.T) {
	raw := []byte(strings.Repeat("a", payload.CompressionThreshold*4))
	e, err := payload.NewEnvelope(1, payload.CmdBlock, raw, true)
	require.NoError(t, err)
	assert.Equal(t, payload.FlagCompressed, e.Flags&payload.FlagCompressed)
	assert.Less(t, len(e.Payload), len(raw))

	got, err := e.DecompressedPayload(len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestEnvelopeSkipsCompressionWhenDisabled(t *testing.T) {
	raw := []byte(strings.Repeat("b", payload.CompressionThreshold*4))
	e, err := payload.NewEnvelope(1, payload.CmdBlock, raw, false)
	require.NoError(t, err)
	assert.Equal(t, byte(0), e.Flags&payload.FlagCompressed)
	assert.Equal(t, raw, e.Payload)
}

func TestVersionRejectsDuplicateCapability(t *testing.T) {
	v := &payload.Version{
		Network:   1,
		Version:   0,
		UserAgent: "/test:1.0/",
		Capabilities: []payload.Capability{
			{Type: payload.CapFullNode, Data: 100},
			{Type: payload.CapFullNode, Data: 200},
		},
	}
	w := io.NewBufBinWriter()
	v.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	got := new(payload.Version)
	r := io.NewBinReaderFromBuf(w.Bytes())
	got.DecodeBinary(r)
	assert.ErrorIs(t, r.Err, payload.ErrDuplicateCapability)
}

func TestVersionStartHeightAndHasCapability(t *testing.T) {
	v := &payload.Version{
		Capabilities: []payload.Capability{
			{Type: payload.CapTCPServer, Data: 10333},
			{Type: payload.CapFullNode, Data: 12345},
		},
	}
	assert.True(t, v.HasCapability(payload.CapTCPServer))
	assert.False(t, v.HasCapability(payload.CapWSServer))
	assert.Equal(t, uint32(12345), v.StartHeight())
}

func TestInventoryRoundTrip(t *testing.T) {
	inv := &payload.Inventory{
		Type:   payload.InvTx,
		Hashes: []util.Uint256{{1}, {2}, {3}},
	}
	w := io.NewBufBinWriter()
	inv.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	got := new(payload.Inventory)
	r := io.NewBinReaderFromBuf(w.Bytes())
	got.DecodeBinary(r)
	require.NoError(t, r.Err)
	assert.Equal(t, inv.Type, got.Type)
	assert.Equal(t, inv.Hashes, got.Hashes)
}

func TestPingPongRoundTrip(t *testing.T) {
	p := &payload.Ping{LastBlockIndex: 100, Timestamp: 200, Nonce: 300}
	w := io.NewBufBinWriter()
	p.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	got := new(payload.Pong)
	r := io.NewBinReaderFromBuf(w.Bytes())
	got.DecodeBinary(r)
	require.NoError(t, r.Err)
	assert.Equal(t, *p, *got)
}
