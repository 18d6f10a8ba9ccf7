package core_test

import (
	"testing"

	"github.com/n3-core/node/pkg/core"
	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noCommitteeAccount is the script hash verifyBlockWitness expects on
// next_consensus when NeoToken has no registered candidates: the empty
// verification script's hash, matching a block's zero-value Witness.
var noCommitteeAccount = hash.Hash160(nil)

func newTestChain(t *testing.T) *core.Blockchain {
	t.Helper()
	bc := core.New(storage.NewMemoryStore(), nil)
	require.NoError(t, bc.RunGenesis(noCommitteeAccount, 1))
	return bc
}

func nextBlock(t *testing.T, bc *core.Blockchain) *block.Block {
	t.Helper()
	b := &block.Block{
		Header: block.Header{
			Index:         bc.BlockHeight() + 1,
			PrevHash:      bc.CurrentBlockHash(),
			Timestamp:     uint64(bc.BlockHeight()) + 2,
			NextConsensus: noCommitteeAccount,
		},
	}
	b.Header.MerkleRoot = b.ComputeMerkleRoot()
	return b
}

func TestRunGenesisIsIdempotent(t *testing.T) {
	bc := newTestChain(t)
	firstHash := bc.CurrentBlockHash()

	require.NoError(t, bc.RunGenesis(util.Uint160{0x02}, 999))
	assert.Equal(t, firstHash, bc.CurrentBlockHash())
	assert.Equal(t, uint32(0), bc.BlockHeight())
}

func TestAddBlockAdvancesHeight(t *testing.T) {
	bc := newTestChain(t)

	b1 := nextBlock(t, bc)
	require.NoError(t, bc.AddBlock(b1))
	assert.Equal(t, uint32(1), bc.BlockHeight())
	assert.Equal(t, b1.Hash(), bc.CurrentBlockHash())

	b2 := nextBlock(t, bc)
	require.NoError(t, bc.AddBlock(b2))
	assert.Equal(t, uint32(2), bc.BlockHeight())
	assert.Equal(t, b2.Hash(), bc.CurrentBlockHash())

	got, err := bc.GetBlock(b1.Hash())
	require.NoError(t, err)
	assert.Equal(t, b1.Header.Index, got.Header.Index)
}

func TestAddBlockRejectsWrongIndex(t *testing.T) {
	bc := newTestChain(t)

	b := nextBlock(t, bc)
	b.Header.Index = 5
	b.Header.MerkleRoot = b.ComputeMerkleRoot()

	err := bc.AddBlock(b)
	assert.ErrorIs(t, err, core.ErrInvalidBlock)
	assert.Equal(t, uint32(0), bc.BlockHeight())
}

func TestAddBlockRejectsBadPrevHash(t *testing.T) {
	bc := newTestChain(t)

	b := nextBlock(t, bc)
	b.Header.PrevHash = util.Uint256{0xff}
	b.Header.MerkleRoot = b.ComputeMerkleRoot()

	err := bc.AddBlock(b)
	assert.ErrorIs(t, err, core.ErrInvalidBlock)
}

func TestStateRootAtMatchesCurrentStateRootAfterPersist(t *testing.T) {
	bc := newTestChain(t)

	b1 := nextBlock(t, bc)
	require.NoError(t, bc.AddBlock(b1))
	afterB1 := bc.StateRoot()

	got, err := bc.StateRootAt(1)
	require.NoError(t, err)
	assert.Equal(t, afterB1, got)
}

func TestGetAppLogRetrievesPersistedOnPersistRecord(t *testing.T) {
	bc := newTestChain(t)

	b1 := nextBlock(t, bc)
	require.NoError(t, bc.AddBlock(b1))

	log, err := bc.GetAppLog(b1.Hash())
	require.NoError(t, err)
	assert.NotNil(t, log)
}
