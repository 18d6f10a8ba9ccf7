package vm

import "github.com/n3-core/node/pkg/vm/opcode"

// Gas price classes, in GAS fractions of 10^-8 (spec §4.D gas metering).
const (
	opQuota        int64 = 1 << 0
	opFixed8       int64 = 1 << 3
	opFixed16      int64 = 1 << 4
	opFixed1024    int64 = 1 << 10
	opFixed2048    int64 = 1 << 11
	opFixed4096    int64 = 1 << 12
	opFixed32768   int64 = 1 << 15
	opFixed65536   int64 = 1 << 16
	opFixed524288  int64 = 1 << 19
	opFixed2097152 int64 = 1 << 21
)

// opcodePrices assigns a base gas cost to every opcode. This price is the
// whole charge for an opcode: the interpreter adds no size-dependent
// component for PUSHDATA*, NEWARRAY, APPEND or the like. The only extra
// charge is an interop's Price, added when SYSCALL dispatches it.
var opcodePrices = buildPrices()

func buildPrices() map[opcode.Opcode]int64 {
	m := map[opcode.Opcode]int64{}
	cheap := []opcode.Opcode{
		opcode.PUSHM1, opcode.PUSH0, opcode.PUSH1, opcode.PUSH2, opcode.PUSH3,
		opcode.PUSH4, opcode.PUSH5, opcode.PUSH6, opcode.PUSH7, opcode.PUSH8,
		opcode.PUSH9, opcode.PUSH10, opcode.PUSH11, opcode.PUSH12, opcode.PUSH13,
		opcode.PUSH14, opcode.PUSH15, opcode.PUSH16, opcode.PUSHNULL,
		opcode.NOP, opcode.ASSERT, opcode.DEPTH, opcode.DROP, opcode.NIP,
		opcode.CLEAR, opcode.DUP, opcode.OVER, opcode.SWAP, opcode.ROT,
		opcode.SIGN, opcode.ABS, opcode.NEGATE, opcode.INC, opcode.DEC,
		opcode.NOT, opcode.NZ, opcode.BOOLAND, opcode.BOOLOR,
		opcode.ISNULL, opcode.REVERSE3, opcode.REVERSE4,
	}
	for _, op := range cheap {
		m[op] = opQuota
	}
	fixed8 := []opcode.Opcode{
		opcode.PUSHINT8, opcode.PUSHINT16, opcode.PUSHINT32, opcode.PUSHINT64,
		opcode.JMP, opcode.JMPL, opcode.JMPIF, opcode.JMPIFL, opcode.JMPIFNOT,
		opcode.JMPIFNOTL, opcode.JMPEQ, opcode.JMPEQL, opcode.JMPNE, opcode.JMPNEL,
		opcode.JMPGT, opcode.JMPGTL, opcode.JMPGE, opcode.JMPGEL, opcode.JMPLT,
		opcode.JMPLTL, opcode.JMPLE, opcode.JMPLEL, opcode.XDROP, opcode.PICK,
		opcode.TUCK, opcode.ROLL, opcode.REVERSEN, opcode.ADD, opcode.SUB,
		opcode.MUL, opcode.DIV, opcode.MOD, opcode.SHL, opcode.SHR, opcode.NUMEQUAL,
		opcode.NUMNOTEQUAL, opcode.LT, opcode.LE, opcode.GT, opcode.GE, opcode.MIN,
		opcode.MAX, opcode.WITHIN, opcode.INVERT, opcode.AND, opcode.OR, opcode.XOR,
		opcode.EQUAL, opcode.NOTEQUAL, opcode.ISTYPE, opcode.STLOC0, opcode.STLOC,
		opcode.STARG0, opcode.STARG, opcode.STSFLD0, opcode.STSFLD, opcode.LDLOC0,
		opcode.LDLOC, opcode.LDARG0, opcode.LDARG, opcode.LDSFLD0, opcode.LDSFLD,
		opcode.NEWSTRUCT0, opcode.NEWARRAY0, opcode.NEWMAP, opcode.SIZE,
		opcode.HASKEY, opcode.CONVERT,
	}
	for _, op := range fixed8 {
		m[op] = opFixed8
	}
	fixed16 := []opcode.Opcode{
		opcode.PUSHINT128, opcode.PUSHINT256, opcode.PUSHA, opcode.INITSSLOT,
		opcode.INITSLOT, opcode.NEWARRAY, opcode.NEWARRAYT, opcode.NEWSTRUCT,
		opcode.KEYS, opcode.PICKITEM, opcode.APPEND, opcode.SETITEM,
		opcode.REVERSEITEMS, opcode.REMOVE, opcode.CLEARITEMS, opcode.POPITEM,
		opcode.PACK, opcode.PACKMAP, opcode.PACKSTRUCT, opcode.UNPACK, opcode.VALUES,
		opcode.CAT, opcode.SUBSTR, opcode.LEFT, opcode.RIGHT, opcode.MEMCPY,
		opcode.NEWBUFFER,
	}
	for _, op := range fixed16 {
		m[op] = opFixed16
	}
	m[opcode.CALL] = opFixed2048
	m[opcode.CALLL] = opFixed2048
	m[opcode.CALLA] = opFixed2048
	m[opcode.CALLT] = opFixed32768
	m[opcode.ABORT] = opQuota
	m[opcode.THROW] = opFixed512()
	m[opcode.TRY] = opFixed8
	m[opcode.TRYL] = opFixed8
	m[opcode.ENDTRY] = opFixed8
	m[opcode.ENDTRYL] = opFixed8
	m[opcode.ENDFINALLY] = opFixed8
	m[opcode.RET] = 0
	m[opcode.SYSCALL] = 0 // priced per-interop in the dispatch table
	m[opcode.PUSHDATA1] = opFixed8
	m[opcode.PUSHDATA2] = opFixed16
	m[opcode.PUSHDATA4] = opFixed16
	m[opcode.SQRT] = opFixed1024
	m[opcode.POW] = opFixed1024
	m[opcode.MODMUL] = opFixed1024
	m[opcode.MODPOW] = opFixed2097152
	return m
}

func opFixed512() int64 { return 1 << 9 }

// priceOf returns the base price for op, or opFixed8 as a conservative
// default for anything not explicitly tabled above.
func priceOf(op opcode.Opcode) int64 {
	if p, ok := opcodePrices[op]; ok {
		return p
	}
	return opFixed8
}

// Interop gas prices, charged in addition to the SYSCALL opcode's own
// (zero) base price.
const (
	InteropPriceDefault     int64 = opFixed1024
	InteropPriceStorageGet  int64 = opFixed32768
	InteropPriceStoragePut  int64 = opFixed524288
	InteropPriceContractCal int64 = opFixed4096
	InteropPriceCheckSig    int64 = opFixed2097152 << 5 // ECDSA verify, ~1<<26
	InteropPriceCheckMultisig int64 = InteropPriceCheckSig
	InteropPriceHash160     int64 = opFixed4096
	InteropPriceHash256     int64 = opFixed4096
	InteropPriceLog         int64 = opFixed32768
	InteropPriceNotify      int64 = opFixed32768
)
