package consensus

import (
	"testing"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeDecodePayload(t *testing.T, p *Payload) *Payload {
	t.Helper()
	w := io.NewBufBinWriter()
	p.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	got := new(Payload)
	r := io.NewBinReaderFromBuf(w.Bytes())
	got.DecodeBinary(r)
	require.NoError(t, r.Err)
	return got
}

func TestPrepareRequestRoundTrip(t *testing.T) {
	pr := &PrepareRequest{
		Timestamp:         123456,
		Nonce:             42,
		TransactionHashes: []util.Uint256{{1}, {2}},
	}
	p := NewPrepareRequestPayload(10, 1, 2, pr)
	p.Witness.InvocationScript = []byte{0xde, 0xad}

	got := encodeDecodePayload(t, p)
	require.NotNil(t, got.PrepareRequest())
	assert.Equal(t, uint32(10), got.BlockIndex)
	assert.Equal(t, byte(1), got.ViewNumber)
	assert.Equal(t, byte(2), got.ValidatorIndex)
	assert.Equal(t, pr.Timestamp, got.PrepareRequest().Timestamp)
	assert.Equal(t, pr.Nonce, got.PrepareRequest().Nonce)
	assert.Equal(t, pr.TransactionHashes, got.PrepareRequest().TransactionHashes)
	assert.Equal(t, p.Witness.InvocationScript, got.Witness.InvocationScript)
}

func TestPrepareResponseRoundTrip(t *testing.T) {
	p := NewPrepareResponsePayload(5, 0, 1, &PrepareResponse{PreparationHash: util.Uint256{9}})
	got := encodeDecodePayload(t, p)
	assert.Equal(t, util.Uint256{9}, got.PrepareResponse().PreparationHash)
}

func TestChangeViewRoundTrip(t *testing.T) {
	p := NewChangeViewPayload(5, 0, 1, &ChangeView{NewViewNumber: 1, Reason: ReasonTimeout, Timestamp: 99})
	got := encodeDecodePayload(t, p)
	assert.Equal(t, byte(1), got.ChangeView().NewViewNumber)
	assert.Equal(t, ReasonTimeout, got.ChangeView().Reason)
}

func TestCommitRoundTrip(t *testing.T) {
	var sig [64]byte
	copy(sig[:], "deterministic-test-signature-bytes-padded-out-to-64-bytes-long!")
	p := NewCommitPayload(5, 0, 1, &Commit{Signature: sig})
	got := encodeDecodePayload(t, p)
	assert.Equal(t, sig, got.Commit().Signature)
}

func TestRecoveryMessageRoundTrip(t *testing.T) {
	cv := NewChangeViewPayload(5, 0, 1, &ChangeView{NewViewNumber: 1})
	pr := NewPrepareRequestPayload(5, 0, 0, &PrepareRequest{Timestamp: 1})
	msg := &RecoveryMessage{
		ChangeViews:    []Payload{*cv},
		PrepareRequest: pr,
	}
	p := NewRecoveryMessagePayload(5, 0, 2, msg)
	got := encodeDecodePayload(t, p)
	require.Len(t, got.RecoveryMessage().ChangeViews, 1)
	require.NotNil(t, got.RecoveryMessage().PrepareRequest)
	assert.Equal(t, uint64(1), got.RecoveryMessage().PrepareRequest.PrepareRequest().Timestamp)
}

func TestPayloadHashStableAcrossEncoding(t *testing.T) {
	p := NewPrepareResponsePayload(1, 0, 0, &PrepareResponse{PreparationHash: util.Uint256{7}})
	h1 := p.Hash()
	got := encodeDecodePayload(t, p)
	assert.Equal(t, h1, got.Hash())
}
