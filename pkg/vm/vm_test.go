package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/opcode"
)

func runScript(t *testing.T, script []byte) *VM {
	t.Helper()
	v := New(trigger.Application, -1, nil)
	_, err := v.LoadScript(script, -1, callflag.All, util.Uint160{})
	require.NoError(t, err)
	v.Run()
	return v
}

func TestVMAddition(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.PUSH2),
		byte(opcode.ADD),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	require.Equal(t, 1, v.ResultStack().Len())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Int64())
}

func TestVMAssertFailureFaults(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH0),
		byte(opcode.ASSERT),
	}
	v := runScript(t, script)
	assert.Equal(t, Fault, v.State())
	require.NotNil(t, v.UncaughtException())
}

func TestVMDupAndDrop(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH5),
		byte(opcode.DUP),
		byte(opcode.DROP),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.Int64())
}

func TestVMJumpIf(t *testing.T) {
	// index: 0 PUSH1, 1 JMPIF, 2 operand(+4), 3 PUSH0, 4 RET, 5 PUSH9, 6 RET.
	// JMPIF's offset is relative to its own opcode byte (index 1), so +4
	// lands on index 5 (PUSH9), skipping the false branch.
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.JMPIF), 4,
		byte(opcode.PUSH0),
		byte(opcode.RET),
		byte(opcode.PUSH9),
		byte(opcode.RET),
	}
	v := runScript(t, script)
	require.Equal(t, Halt, v.State())
	n, err := v.ResultStack().Pop().TryInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(9), n.Int64())
}

func TestVMOutOfGasFaults(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.PUSH2),
		byte(opcode.ADD),
		byte(opcode.RET),
	}
	v := New(trigger.Application, 1, nil)
	_, err := v.LoadScript(script, -1, callflag.All, util.Uint160{})
	require.NoError(t, err)
	v.Run()
	assert.Equal(t, Fault, v.State())
}
