package native_test

import (
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

func TestOracleGetSetPrice(t *testing.T) {
	gas := native.NewGasToken()
	roles := native.NewRoleManagement(native.NewNeoToken())
	o := native.NewOracle(gas, roles)
	ic := newTestContext()

	got, err := o.Invoke(ic, "getPrice", nil)
	require.NoError(t, err)
	v, _ := got.TryInteger()
	assert.Equal(t, int64(50_000_000), v.Int64())

	_, err = o.Invoke(ic, "setPrice", []stackitem.Item{intItem(t, 25_000_000)})
	require.NoError(t, err)

	got, err = o.Invoke(ic, "getPrice", nil)
	require.NoError(t, err)
	v, _ = got.TryInteger()
	assert.Equal(t, int64(25_000_000), v.Int64())
}

func TestOracleRequestBurnsGasFromSender(t *testing.T) {
	gas := native.NewGasToken()
	roles := native.NewRoleManagement(native.NewNeoToken())
	o := native.NewOracle(gas, roles)

	sender := util.Uint160{42}
	tx := &transaction.Transaction{
		Signers: []transaction.Signer{{Account: sender}},
		Script:  []byte{0x51},
	}

	dao := storage.NewDataCache(storage.NewMemoryStore())
	ic := interop.NewContext(trigger.Application, nil, dao, nil, tx, nil)
	ic.UseSigners(tx.Signers)

	seedGasBalance(t, ic, sender, 1_00000000)

	args := []stackitem.Item{
		stackitem.NewByteString([]byte("https://example.com")),
		stackitem.NewByteString([]byte("$.price")),
		stackitem.NewByteString(util.Uint160{1}.BytesBE()),
		stackitem.NewByteString([]byte("callback")),
		stackitem.NewNull(),
		intItem(t, 10_000_000),
	}
	_, err := o.Invoke(ic, "request", args)
	require.NoError(t, err)

	remaining := gas.Balance(ic, sender)
	assert.True(t, remaining.Int64() < 1_00000000)
}
