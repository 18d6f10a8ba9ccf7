package mempool_test

import (
	"testing"

	"github.com/n3-core/node/pkg/core/mempool"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txWithFee(nonce uint32, networkFee, systemFee int64) *transaction.Transaction {
	return &transaction.Transaction{
		Version:         0,
		Nonce:           nonce,
		SystemFee:       systemFee,
		NetworkFee:      networkFee,
		ValidUntilBlock: 1000,
		Signers:         []transaction.Signer{{Account: util.Uint160{byte(nonce)}}},
		Script:          []byte{0x51},
	}
}

func TestPoolAddAndContains(t *testing.T) {
	p := mempool.New(10)
	tx := txWithFee(1, 1000, 0)

	assert.False(t, p.Contains(tx.Hash()))

	res, err := p.Add(tx, nil)
	require.NoError(t, err)
	assert.Equal(t, mempool.Succeed, res)
	assert.True(t, p.Contains(tx.Hash()))
	assert.Equal(t, 1, p.Size())
}

func TestPoolRejectsDuplicate(t *testing.T) {
	p := mempool.New(10)
	tx := txWithFee(1, 1000, 0)

	_, err := p.Add(tx, nil)
	require.NoError(t, err)

	res, err := p.Add(tx, nil)
	require.NoError(t, err)
	assert.Equal(t, mempool.AlreadyExists, res)
	assert.Equal(t, 1, p.Size())
}

func TestPoolEvictsLowestPriorityWhenFull(t *testing.T) {
	p := mempool.New(2)

	low := txWithFee(1, 100, 0)
	mid := txWithFee(2, 200, 0)
	high := txWithFee(3, 500, 0)

	_, err := p.Add(low, nil)
	require.NoError(t, err)
	_, err = p.Add(mid, nil)
	require.NoError(t, err)

	res, err := p.Add(high, nil)
	require.NoError(t, err)
	assert.Equal(t, mempool.Succeed, res)

	assert.False(t, p.Contains(low.Hash()))
	assert.True(t, p.Contains(mid.Hash()))
	assert.True(t, p.Contains(high.Hash()))
	assert.Equal(t, 2, p.Size())
}

func TestPoolFullRejectsLowerPriority(t *testing.T) {
	p := mempool.New(1)

	high := txWithFee(1, 500, 0)
	low := txWithFee(2, 100, 0)

	_, err := p.Add(high, nil)
	require.NoError(t, err)

	res, err := p.Add(low, nil)
	assert.ErrorIs(t, err, mempool.ErrFull)
	assert.Equal(t, mempool.PolicyFail, res)
	assert.True(t, p.Contains(high.Hash()))
	assert.False(t, p.Contains(low.Hash()))
}

func TestPoolTakeForBlockOrdersByPriority(t *testing.T) {
	p := mempool.New(10)

	low := txWithFee(1, 100, 0)
	high := txWithFee(2, 900, 0)
	mid := txWithFee(3, 400, 0)

	for _, tx := range []*transaction.Transaction{low, high, mid} {
		_, err := p.Add(tx, nil)
		require.NoError(t, err)
	}

	selected := p.TakeForBlock(10, 1<<20, 1<<60)
	require.Len(t, selected, 3)
	assert.Equal(t, high.Hash(), selected[0].Hash())
	assert.Equal(t, mid.Hash(), selected[1].Hash())
	assert.Equal(t, low.Hash(), selected[2].Hash())
}

func TestPoolOnBlockPersistedRemovesIncludedAndExpired(t *testing.T) {
	p := mempool.New(10)

	included := txWithFee(1, 100, 0)
	stillValid := txWithFee(2, 200, 0)
	expiring := txWithFee(3, 300, 0)
	expiring.ValidUntilBlock = 5

	for _, tx := range []*transaction.Transaction{included, stillValid, expiring} {
		_, err := p.Add(tx, nil)
		require.NoError(t, err)
	}

	p.OnBlockPersisted([]util.Uint256{included.Hash()}, 5)

	assert.False(t, p.Contains(included.Hash()))
	assert.False(t, p.Contains(expiring.Hash()))
	assert.True(t, p.Contains(stillValid.Hash()))
}

func TestPoolVerifierRejection(t *testing.T) {
	p := mempool.New(10)
	tx := txWithFee(1, 100, 0)

	res, err := p.Add(tx, func(*transaction.Transaction) mempool.Result {
		return mempool.InsufficientNetworkFee
	})
	require.NoError(t, err)
	assert.Equal(t, mempool.InsufficientNetworkFee, res)
	assert.False(t, p.Contains(tx.Hash()))
}
