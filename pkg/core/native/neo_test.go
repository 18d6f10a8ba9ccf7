package native_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func newTestContext(signers ...transaction.Signer) *interop.Context {
	dao := storage.NewDataCache(storage.NewMemoryStore())
	ic := interop.NewContext(trigger.Application, nil, dao, nil, nil, nil)
	ic.UseSigners(signers)
	return ic
}

func intItem(t *testing.T, v int64) stackitem.Item {
	t.Helper()
	it, err := stackitem.NewBigInteger(big.NewInt(v))
	require.NoError(t, err)
	return it
}

func TestNeoTokenTransferRequiresWitness(t *testing.T) {
	n := native.NewNeoToken()
	from := util.Uint160{1}
	to := util.Uint160{2}

	// No witness for "from" in the signer set: transfer must refuse.
	ic := newTestContext(transaction.Signer{Account: util.Uint160{9}})
	args := []stackitem.Item{
		stackitem.NewByteString(from[:]),
		stackitem.NewByteString(to[:]),
		intItem(t, 1),
	}
	got, err := n.Invoke(ic, "transfer", args)
	require.NoError(t, err)
	assert.False(t, got.Bool())
}

func TestNeoTokenTransferMovesBalance(t *testing.T) {
	n := native.NewNeoToken()
	from := util.Uint160{1}
	to := util.Uint160{2}

	ic := newTestContext(transaction.Signer{Account: from})
	require.NoError(t, ic.DAO.Put(neoBalanceKey(t, from), []byte{100}))

	args := []stackitem.Item{
		stackitem.NewByteString(from[:]),
		stackitem.NewByteString(to[:]),
		intItem(t, 40),
	}
	got, err := n.Invoke(ic, "transfer", args)
	require.NoError(t, err)
	assert.True(t, got.Bool())

	fromBal, err := n.Invoke(ic, "balanceOf", []stackitem.Item{stackitem.NewByteString(from[:])})
	require.NoError(t, err)
	fb, _ := fromBal.TryInteger()
	assert.Equal(t, int64(60), fb.Int64())

	toBal, err := n.Invoke(ic, "balanceOf", []stackitem.Item{stackitem.NewByteString(to[:])})
	require.NoError(t, err)
	tb, _ := toBal.TryInteger()
	assert.Equal(t, int64(40), tb.Int64())
}

func TestNeoTokenTransferInsufficientBalance(t *testing.T) {
	n := native.NewNeoToken()
	from := util.Uint160{3}
	to := util.Uint160{4}

	ic := newTestContext(transaction.Signer{Account: from})
	args := []stackitem.Item{
		stackitem.NewByteString(from[:]),
		stackitem.NewByteString(to[:]),
		intItem(t, 1),
	}
	got, err := n.Invoke(ic, "transfer", args)
	require.NoError(t, err)
	assert.False(t, got.Bool())
}

// neoBalanceKey builds the raw storage key NeoToken stores a balance
// under, mirroring the native package's own prefixed-key convention
// (spec §4.E.9 "storage keys are (id, prefix_byte || sub_key)") so the
// test can seed a starting balance directly.
func neoBalanceKey(t *testing.T, account util.Uint160) []byte {
	t.Helper()
	var idNeoToken int32 = -5
	const prefixBalance = 0x14
	b := make([]byte, 0, 5+len(account))
	b = append(b, byte(idNeoToken), byte(idNeoToken>>8), byte(idNeoToken>>16), byte(idNeoToken>>24))
	b = append(b, prefixBalance)
	b = append(b, account[:]...)
	return storage.AppendPrefix(storage.STStorage, b)
}
