package vm

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/opcode"
)

// EmitSyscall writes a SYSCALL instruction invoking the interop
// registered under name (InteropID derives the same 4-byte operand the
// VM looks up at call time).
func EmitSyscall(w *io.BinWriter, name string) {
	EmitOpcode(w, opcode.SYSCALL)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, InteropID(name))
	w.WriteBytes(buf)
}

// EmitOpcode writes a single instruction with no operand.
func EmitOpcode(w *io.BinWriter, instr opcode.Opcode) {
	w.WriteB(byte(instr))
}

// EmitBytes writes a PUSHDATA instruction carrying b, picking the
// smallest PUSHDATA1/2/4 variant that fits b's length. NEO3 has no direct
// small-push opcode family the way NEO2 did (spec §4.D): every byte
// string push goes through PUSHDATA.
func EmitBytes(w *io.BinWriter, b []byte) {
	n := len(b)
	switch {
	case n < 0x100:
		EmitOpcode(w, opcode.PUSHDATA1)
		w.WriteB(byte(n))
	case n < 0x10000:
		EmitOpcode(w, opcode.PUSHDATA2)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(n))
		w.WriteBytes(buf)
	default:
		EmitOpcode(w, opcode.PUSHDATA4)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		w.WriteBytes(buf)
	}
	w.WriteBytes(b)
}

// EmitInt writes the shortest instruction pushing i, using the PUSHM1/
// PUSH0-PUSH16 single-byte family for small values.
func EmitInt(w *io.BinWriter, i int64) {
	switch {
	case i == -1:
		EmitOpcode(w, opcode.PUSHM1)
		return
	case i >= 0 && i <= 16:
		EmitOpcode(w, opcode.Opcode(int(opcode.PUSH0)+int(i)))
		return
	}
	EmitOpcode(w, opcode.PUSHINT64)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(i))
	w.WriteBytes(buf)
}

// EmitBigInt writes the shortest PUSHINT instruction encoding v,
// rounding its minimal two's-complement width up to the VM's allowed
// integer sizes (1/2/4/8/16/32 bytes, spec §3.1 "BigInteger"). Falls
// back to EmitInt's single-byte family for -1 and 0..16.
func EmitBigInt(w *io.BinWriter, v *big.Int) error {
	if v.IsInt64() {
		i := v.Int64()
		if i == -1 || (i >= 0 && i <= 16) {
			EmitInt(w, i)
			return nil
		}
	}
	raw := bigint.ToBytes(v)
	size := len(raw)
	var op opcode.Opcode
	var width int
	switch {
	case size <= 1:
		op, width = opcode.PUSHINT8, 1
	case size <= 2:
		op, width = opcode.PUSHINT16, 2
	case size <= 4:
		op, width = opcode.PUSHINT32, 4
	case size <= 8:
		op, width = opcode.PUSHINT64, 8
	case size <= 16:
		op, width = opcode.PUSHINT128, 16
	case size <= 32:
		op, width = opcode.PUSHINT256, 32
	default:
		return fmt.Errorf("vm: integer %s too large for any PUSHINT width", v.String())
	}
	buf := make([]byte, width)
	copy(buf, raw)
	if v.Sign() < 0 {
		for i := len(raw); i < width; i++ {
			buf[i] = 0xff
		}
	}
	EmitOpcode(w, op)
	w.WriteBytes(buf)
	return nil
}

// EmitCall writes the tail of a System.Contract.Call invocation,
// assuming the caller has already pushed the packed argument array
// onto the stack. It pushes flags, then method, then hash, matching
// pkg/core/interop/syscalls.go execContractCall, which pops hash, then
// method, then flags, then args (spec §4.D "System.Contract.Call").
func EmitCall(w *io.BinWriter, hash util.Uint160, method string, flags int64) {
	EmitInt(w, flags)
	EmitBytes(w, []byte(method))
	EmitBytes(w, hash.BytesBE())
	EmitSyscall(w, "System.Contract.Call")
}
