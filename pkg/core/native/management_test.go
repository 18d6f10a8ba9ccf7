package native_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// mgmtKey mirrors ContractManagement's internal (id, prefix) key layout
// (spec §4.E.9 storage key convention), letting the test read back a
// value set through Invoke.
func mgmtKey(prefix byte) []byte {
	var idManagement int32 = -1
	b := make([]byte, 0, 5)
	b = append(b, byte(idManagement), byte(idManagement>>8), byte(idManagement>>16), byte(idManagement>>24))
	b = append(b, prefix)
	return storage.AppendPrefix(storage.STStorage, b)
}

func TestContractManagementGetContractNotFound(t *testing.T) {
	m := native.NewContractManagement()
	ic := newTestContext()

	got, err := m.Invoke(ic, "getContract", []stackitem.Item{stackitem.NewByteString(util.Uint160{1}.BytesBE())})
	require.NoError(t, err)
	assert.Equal(t, stackitem.NewNull(), got)
}

func TestContractManagementSetMinimumDeploymentFeePersists(t *testing.T) {
	m := native.NewContractManagement()
	ic := newTestContext()

	got, err := m.Invoke(ic, "setMinimumDeploymentFee", []stackitem.Item{intItem(t, 5_00000000)})
	require.NoError(t, err)
	assert.True(t, got.Bool())

	const mgmtPrefixMinDeployFee = 0x14
	v, err := ic.DAO.Get(mgmtKey(mgmtPrefixMinDeployFee))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_00000000), bigint.FromBytes(v))
}
