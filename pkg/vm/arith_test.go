package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/vm/opcode"
)

func TestVMDivByZeroFaults(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.PUSH0),
		byte(opcode.DIV),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	assert.Equal(t, Fault, v.State())
}

func TestVMModByZeroFaults(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.PUSH0),
		byte(opcode.MOD),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	assert.Equal(t, Fault, v.State())
}

func TestVMPowNegativeExponentFaults(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH2),
		byte(opcode.PUSHM1),
		byte(opcode.POW),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	assert.Equal(t, Fault, v.State())
}

func TestVMPowZeroToZeroIsOne(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH0),
		byte(opcode.PUSH0),
		byte(opcode.POW),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Int64())
}

func TestVMMinMax(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH3),
		byte(opcode.PUSH5),
		byte(opcode.MIN),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Int64())
}

func TestVMModRemainderSignFollowsDividend(t *testing.T) {
	script := []byte{
		byte(opcode.PUSHM1),
		byte(opcode.PUSH3),
		byte(opcode.MOD),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n.Int64())
}
