package native_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

var errLedgerTestNotFound = errors.New("native_test: not found")

// fakeLedgerChain is a minimal in-memory interop.Ledger used to exercise
// the LedgerContract native without a full Blockchain.
type fakeLedgerChain struct {
	blocks map[util.Uint256]*block.Block
	height uint32
	head   util.Uint256
}

func (f *fakeLedgerChain) BlockHeight() uint32                { return f.height }
func (f *fakeLedgerChain) CurrentBlockHash() util.Uint256     { return f.head }
func (f *fakeLedgerChain) GetHeaderHash(index uint32) util.Uint256 { return f.head }
func (f *fakeLedgerChain) GetBlock(h util.Uint256) (*block.Block, error) {
	b, ok := f.blocks[h]
	if !ok {
		return nil, errLedgerTestNotFound
	}
	return b, nil
}
func (f *fakeLedgerChain) GetTransaction(h util.Uint256) (*transaction.Transaction, uint32, error) {
	return nil, 0, errLedgerTestNotFound
}

func TestLedgerCurrentIndexAndHash(t *testing.T) {
	l := native.NewLedger()
	b := &block.Block{}
	chain := &fakeLedgerChain{blocks: map[util.Uint256]*block.Block{}, height: 7, head: util.Uint256{1}}
	chain.blocks[chain.head] = b

	dao := storage.NewDataCache(storage.NewMemoryStore())
	ic := interop.NewContext(trigger.Application, chain, dao, nil, nil, nil)

	idx, err := l.Invoke(ic, "currentIndex", nil)
	require.NoError(t, err)
	v, _ := idx.TryInteger()
	assert.Equal(t, int64(7), v.Int64())

	h, err := l.Invoke(ic, "currentHash", nil)
	require.NoError(t, err)
	hb, _ := h.TryBytes()
	assert.Equal(t, chain.head.BytesBE(), hb)
}

func TestLedgerGetBlockNotFoundReturnsNull(t *testing.T) {
	l := native.NewLedger()
	chain := &fakeLedgerChain{blocks: map[util.Uint256]*block.Block{}}
	dao := storage.NewDataCache(storage.NewMemoryStore())
	ic := interop.NewContext(trigger.Application, chain, dao, nil, nil, nil)

	missing := util.Uint256{9}
	got, err := l.Invoke(ic, "getBlock", []stackitem.Item{stackitem.NewByteString(missing[:])})
	require.NoError(t, err)
	assert.Equal(t, stackitem.NewNull(), got)
}
