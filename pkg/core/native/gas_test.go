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
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// gasBalanceKey mirrors GasToken's internal (id, prefix, account) key
// layout (same convention as NeoToken's, spec §4.E.9) so a test can seed
// a starting balance without going through a state-mutating call.
func gasBalanceKey(account util.Uint160) []byte {
	var idGasToken int32 = -6
	const prefixBalance = 0x14
	b := make([]byte, 0, 5+len(account))
	b = append(b, byte(idGasToken), byte(idGasToken>>8), byte(idGasToken>>16), byte(idGasToken>>24))
	b = append(b, prefixBalance)
	b = append(b, account[:]...)
	return storage.AppendPrefix(storage.STStorage, b)
}

func seedGasBalance(t *testing.T, ic *interop.Context, account util.Uint160, amount int64) {
	t.Helper()
	require.NoError(t, ic.DAO.Put(gasBalanceKey(account), bigint.ToBytes(big.NewInt(amount))))
}

func TestGasTokenBurn(t *testing.T) {
	g := native.NewGasToken()
	ic := newTestContext()
	acc := util.Uint160{7}

	seedGasBalance(t, ic, acc, 1000)
	assert.Equal(t, big.NewInt(1000), g.Balance(ic, acc))

	require.NoError(t, g.Burn(ic, acc, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), g.Balance(ic, acc))
}

func TestGasTokenBurnInsufficientFunds(t *testing.T) {
	g := native.NewGasToken()
	ic := newTestContext()
	acc := util.Uint160{8}

	seedGasBalance(t, ic, acc, 10)
	err := g.Burn(ic, acc, big.NewInt(11))
	assert.Error(t, err)
}

func TestGasTokenBalanceOfViaInvoke(t *testing.T) {
	g := native.NewGasToken()
	ic := newTestContext()
	acc := util.Uint160{9}

	seedGasBalance(t, ic, acc, 500)

	bal, err := g.Invoke(ic, "balanceOf", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)
	b, _ := bal.TryInteger()
	assert.Equal(t, int64(500), b.Int64())
}

func TestGasTokenTransferRequiresWitness(t *testing.T) {
	g := native.NewGasToken()
	from := util.Uint160{1}
	to := util.Uint160{2}

	ic := newTestContext(transaction.Signer{Account: util.Uint160{99}})
	seedGasBalance(t, ic, from, 100)

	args := []stackitem.Item{
		stackitem.NewByteString(from[:]),
		stackitem.NewByteString(to[:]),
		intItem(t, 10),
		stackitem.NewNull(),
	}
	got, err := g.Invoke(ic, "transfer", args)
	require.NoError(t, err)
	assert.False(t, got.Bool())
}

func TestGasTokenTransferMovesBalance(t *testing.T) {
	g := native.NewGasToken()
	from := util.Uint160{3}
	to := util.Uint160{4}

	ic := newTestContext(transaction.Signer{Account: from})
	seedGasBalance(t, ic, from, 100)

	args := []stackitem.Item{
		stackitem.NewByteString(from[:]),
		stackitem.NewByteString(to[:]),
		intItem(t, 30),
		stackitem.NewNull(),
	}
	got, err := g.Invoke(ic, "transfer", args)
	require.NoError(t, err)
	assert.True(t, got.Bool())
	assert.Equal(t, big.NewInt(70), g.Balance(ic, from))
	assert.Equal(t, big.NewInt(30), g.Balance(ic, to))
}
