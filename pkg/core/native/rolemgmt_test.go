package native_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func TestRoleManagementDesignateRequiresCommittee(t *testing.T) {
	neo := native.NewNeoToken()
	r := native.NewRoleManagement(neo)
	ic := newTestContext()

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pubs := stackitem.NewArray([]stackitem.Item{stackitem.NewByteString(priv.PublicKey().Bytes())})

	_, err = r.Invoke(ic, "designateAsRole", []stackitem.Item{
		intItem(t, int64(native.RoleOracle)), pubs,
	})
	assert.Error(t, err)
}

func TestRoleManagementDesignateAndLookup(t *testing.T) {
	neo := native.NewNeoToken()
	r := native.NewRoleManagement(neo)
	ic := newTestContext()
	ic.Chain = &fakeLedgerChain{} // designate reads the chain height
	committee := neo.CommitteeAddress(ic)
	ic.UseSigners([]transaction.Signer{{Account: committee}})

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pubs := stackitem.NewArray([]stackitem.Item{stackitem.NewByteString(priv.PublicKey().Bytes())})

	_, err = r.Invoke(ic, "designateAsRole", []stackitem.Item{
		intItem(t, int64(native.RoleOracle)), pubs,
	})
	require.NoError(t, err)

	got := r.GetDesignatedByRole(ic, native.RoleOracle, ^uint32(0))
	require.Len(t, got, 1)
	assert.Equal(t, priv.PublicKey().Bytes(), got[0].Bytes())
}
