package native_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func TestPolicyDefaultsBeforeGenesis(t *testing.T) {
	neo := native.NewNeoToken()
	p := native.NewPolicy(neo)
	ic := newTestContext()

	fpb, err := p.Invoke(ic, "getFeePerByte", nil)
	require.NoError(t, err)
	v, _ := fpb.TryInteger()
	assert.Equal(t, int64(1000), v.Int64())
}

func TestPolicyIsBlockedDefaultsFalse(t *testing.T) {
	neo := native.NewNeoToken()
	p := native.NewPolicy(neo)
	ic := newTestContext()
	acc := util.Uint160{5}

	got, err := p.Invoke(ic, "isBlocked", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)
	assert.False(t, got.Bool())
}

func TestPolicySetFeePerByteRequiresCommitteeWitness(t *testing.T) {
	neo := native.NewNeoToken()
	p := native.NewPolicy(neo)
	ic := newTestContext()

	got, err := p.Invoke(ic, "setFeePerByte", []stackitem.Item{intItem(t, 2000)})
	require.NoError(t, err)
	assert.False(t, got.Bool())

	fpb, err := p.Invoke(ic, "getFeePerByte", nil)
	require.NoError(t, err)
	v, _ := fpb.TryInteger()
	assert.Equal(t, int64(1000), v.Int64())
}

func TestPolicySetFeePerByteWithCommitteeWitness(t *testing.T) {
	neo := native.NewNeoToken()
	p := native.NewPolicy(neo)
	ic := newTestContext()

	committee := neo.CommitteeAddress(ic)
	ic.UseSigners([]transaction.Signer{{Account: committee}})

	got, err := p.Invoke(ic, "setFeePerByte", []stackitem.Item{intItem(t, 2500)})
	require.NoError(t, err)
	assert.True(t, got.Bool())

	fpb, err := p.Invoke(ic, "getFeePerByte", nil)
	require.NoError(t, err)
	v, _ := fpb.TryInteger()
	assert.Equal(t, int64(2500), v.Int64())
}

func TestPolicyBlockAndUnblockAccount(t *testing.T) {
	neo := native.NewNeoToken()
	p := native.NewPolicy(neo)
	ic := newTestContext()
	committee := neo.CommitteeAddress(ic)
	ic.UseSigners([]transaction.Signer{{Account: committee}})

	acc := util.Uint160{6}
	_, err := p.Invoke(ic, "blockAccount", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)

	blocked, err := p.Invoke(ic, "isBlocked", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)
	assert.True(t, blocked.Bool())

	_, err = p.Invoke(ic, "unblockAccount", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)

	blocked, err = p.Invoke(ic, "isBlocked", []stackitem.Item{stackitem.NewByteString(acc[:])})
	require.NoError(t, err)
	assert.False(t, blocked.Bool())
}
