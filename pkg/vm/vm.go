// Package vm implements the stack-based execution engine that runs
// contract bytecode (spec §4, component D).
package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/opcode"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// State is the engine's run state (spec §4.D).
type State byte

// States.
const (
	None State = iota
	Halt
	Fault
	Break
)

func (s State) String() string {
	switch s {
	case None:
		return "NONE"
	case Halt:
		return "HALT"
	case Fault:
		return "FAULT"
	case Break:
		return "BREAK"
	default:
		return "UNKNOWN"
	}
}

// InteropFunc is a native host call invoked by SYSCALL. It receives the
// VM so it can manipulate the evaluation stack directly.
type InteropFunc func(v *VM) error

// InteropHandler pairs an interop's implementation with its gas price and
// the minimum call flags the calling context must hold.
type InteropHandler struct {
	Func     InteropFunc
	Price    int64
	Required callflag.CallFlag
}

const maxInvocationStackDepth = 1024
const maxStackSize = 2 * 1024

// VM is the execution engine. One VM instance runs one top-level
// invocation (a transaction script or a contract verification), possibly
// pushing further contexts for CALL/System.Contract.Call.
type VM struct {
	state        State
	trigger      trigger.Type
	ctxStack     []*ExecutionContext
	refs         *stackitem.RefCounter
	gasLimit     int64
	gasConsumed  int64
	resultStack  *Stack
	interops     map[uint32]*InteropHandler
	uncaught     *FaultException
	scriptHash   func([]byte) util.Uint160
	dao          *storage.DataCache
}

// New creates a VM bound to trigger t and the given gas limit (in GAS
// fractions of 10^-8, spec §2 Fixed8 semantics). dao may be nil for
// scripts that never touch storage (e.g. pure witness checks).
func New(t trigger.Type, gasLimit int64, dao *storage.DataCache) *VM {
	refs := stackitem.NewRefCounter(stackitem.MaxArraySize * maxInvocationStackDepth)
	v := &VM{
		trigger:     t,
		gasLimit:    gasLimit,
		refs:        refs,
		resultStack: newStack(refs),
		interops:    map[uint32]*InteropHandler{},
		dao:         dao,
	}
	return v
}

// RegisterInterop installs the handler for the given syscall name, hashed
// the same way SYSCALL operands are (first 4 bytes of SHA-256 of the
// name, matching how contracts reference interops by id).
func (v *VM) RegisterInterop(name string, h *InteropHandler) {
	v.interops[InteropID(name)] = h
}

// InteropID derives the 4-byte syscall identifier from its string name.
func InteropID(name string) uint32 {
	sum := sha256Sum([]byte(name))
	return binary.LittleEndian.Uint32(sum[:4])
}

// State returns the engine's current run state.
func (v *VM) State() State { return v.state }

// GasConsumed returns the total gas spent so far.
func (v *VM) GasConsumed() int64 { return v.gasConsumed }

// Trigger returns the invocation's trigger type.
func (v *VM) Trigger() trigger.Type { return v.trigger }

// DAO exposes the storage view syscalls operate against.
func (v *VM) DAO() *storage.DataCache { return v.dao }

// UncaughtException returns the fault that stopped the engine, if any.
func (v *VM) UncaughtException() *FaultException { return v.uncaught }

// ResultStack is the caller-visible stack left after a HALTed run.
func (v *VM) ResultStack() *Stack { return v.resultStack }

// CurrentContext returns the innermost execution context, or nil if the
// invocation stack is empty.
func (v *VM) CurrentContext() *ExecutionContext {
	if len(v.ctxStack) == 0 {
		return nil
	}
	return v.ctxStack[len(v.ctxStack)-1]
}

// LoadScript pushes a new execution context for script and returns it.
func (v *VM) LoadScript(script []byte, rvcount int, flags callflag.CallFlag, contractHash util.Uint160) (*ExecutionContext, error) {
	if len(v.ctxStack) >= maxInvocationStackDepth {
		return nil, ErrCallDepthExceeded
	}
	ctx := NewExecutionContext(script, rvcount, flags, contractHash, v.refs)
	ctx.callingCtx = v.CurrentContext()
	v.ctxStack = append(v.ctxStack, ctx)
	return ctx, nil
}

// Estack is a convenience accessor for the current context's evaluation
// stack; it panics if there is no active context, matching the engine's
// invariant that it is only called mid-execution.
func (v *VM) Estack() *Stack { return v.CurrentContext().Estack }

func (v *VM) addGas(price int64) error {
	v.gasConsumed += price
	if v.gasLimit >= 0 && v.gasConsumed > v.gasLimit {
		return ErrOutOfGas
	}
	return nil
}

// Run executes instructions until the engine reaches HALT, FAULT or
// BREAK (a debugger breakpoint; unused outside of `pkg/vm` consumers that
// set one explicitly).
func (v *VM) Run() State {
	if v.state == None {
		v.state = None
	}
	for v.state == None {
		v.Step()
	}
	return v.state
}

// Step executes exactly one instruction.
func (v *VM) Step() {
	ctx := v.CurrentContext()
	if ctx == nil {
		v.state = Fault
		v.fault(ErrInvalidInstruction)
		return
	}
	if ctx.atEnd() {
		v.handleReturn()
		return
	}
	op, operand, newIP, err := decodeInstruction(ctx.Script, ctx.IP)
	if err != nil {
		v.fault(err)
		return
	}
	if err := v.addGas(priceOf(op)); err != nil {
		v.fault(err)
		return
	}
	ctx.IP = newIP
	if err := v.safeExecute(ctx, op, operand); err != nil {
		v.fault(err)
	}
}

// safeExecute runs execute and converts a panic raised by one of the
// must* stack-item conversion helpers into an ordinary FAULT, the same
// way an out-of-bounds slot or bad type assertion faults in any opcode
// that checks explicitly.
func (v *VM) safeExecute(ctx *ExecutionContext, op opcode.Opcode, operand []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("vm: %v", r)
		}
	}()
	return v.execute(ctx, op, operand)
}

func (v *VM) fault(err error) {
	fe, ok := err.(*FaultException)
	if !ok {
		fe = &FaultException{Err: err}
	}
	if v.unwindToHandler(fe) {
		return
	}
	v.uncaught = fe
	v.state = Fault
}

// unwindToHandler looks for an enclosing TRY block able to catch fe,
// starting at the current context and propagating outward through
// RET boundaries is NOT performed: exceptions do not cross context
// boundaries in the spec's model, matching real call-frame semantics.
func (v *VM) unwindToHandler(fe *FaultException) bool {
	ctx := v.CurrentContext()
	if ctx == nil {
		return false
	}
	tb, ok := ctx.TopTry()
	if !ok {
		return false
	}
	ctx.PopTry()
	if tb.hasCatch {
		ctx.Estack.Push(exceptionToItem(fe))
		ctx.IP = tb.CatchOffset
		return true
	}
	if tb.hasFinally {
		ctx.IP = tb.FinallyOffset
		return true
	}
	return v.unwindToHandler(fe)
}

func exceptionToItem(fe *FaultException) stackitem.Item {
	if fe.Value != nil {
		if it, ok := fe.Value.(stackitem.Item); ok {
			return it
		}
	}
	return stackitem.NewByteString([]byte(fe.Error()))
}

func (v *VM) handleReturn() {
	ctx := v.CurrentContext()
	rv := ctx.RVCount
	var results []stackitem.Item
	if rv < 0 {
		results = ctx.Estack.ToArray()
	} else {
		results = make([]stackitem.Item, 0, rv)
		for i := 0; i < rv; i++ {
			results = append([]stackitem.Item{ctx.Estack.Pop()}, results...)
		}
	}
	v.ctxStack = v.ctxStack[:len(v.ctxStack)-1]
	if len(v.ctxStack) == 0 {
		for _, it := range results {
			v.resultStack.Push(it)
		}
		v.state = Halt
		return
	}
	caller := v.CurrentContext()
	for _, it := range results {
		caller.Estack.Push(it)
	}
}

// decodeInstruction reads one instruction at ip and returns its opcode,
// raw operand bytes and the IP of the following instruction.
func decodeInstruction(script []byte, ip int) (opcode.Opcode, []byte, int, error) {
	if ip < 0 || ip >= len(script) {
		return 0, nil, 0, ErrInvalidInstruction
	}
	op := opcode.Opcode(script[ip])
	next := ip + 1
	size, hasLen, err := operandSize(op, script, next)
	if err != nil {
		return 0, nil, 0, err
	}
	var operand []byte
	if hasLen {
		if next+size > len(script) {
			return 0, nil, 0, ErrInvalidInstruction
		}
		operand = script[next : next+size]
		next += size
	}
	return op, operand, next, nil
}

// operandSize returns the number of operand bytes following the opcode
// byte, per the instruction's fixed or length-prefixed encoding.
func operandSize(op opcode.Opcode, script []byte, pos int) (int, bool, error) {
	switch op {
	case opcode.PUSHINT8:
		return 1, true, nil
	case opcode.PUSHINT16:
		return 2, true, nil
	case opcode.PUSHINT32, opcode.PUSHA:
		return 4, true, nil
	case opcode.PUSHINT64:
		return 8, true, nil
	case opcode.PUSHINT128:
		return 16, true, nil
	case opcode.PUSHINT256:
		return 32, true, nil
	case opcode.JMP, opcode.JMPIF, opcode.JMPIFNOT, opcode.JMPEQ, opcode.JMPNE,
		opcode.JMPGT, opcode.JMPGE, opcode.JMPLT, opcode.JMPLE, opcode.CALL,
		opcode.ENDTRY, opcode.INITSSLOT:
		return 1, true, nil
	case opcode.INITSLOT, opcode.TRY:
		return 2, true, nil
	case opcode.JMPL, opcode.JMPIFL, opcode.JMPIFNOTL, opcode.JMPEQL, opcode.JMPNEL,
		opcode.JMPGTL, opcode.JMPGEL, opcode.JMPLTL, opcode.JMPLEL, opcode.CALLL,
		opcode.ENDTRYL, opcode.CALLA:
		return 4, true, nil
	case opcode.TRYL:
		return 8, true, nil
	case opcode.CALLT:
		return 2, true, nil
	case opcode.SYSCALL:
		return 4, true, nil
	case opcode.LDSFLD, opcode.STSFLD, opcode.LDLOC, opcode.STLOC, opcode.LDARG,
		opcode.STARG, opcode.NEWARRAYT, opcode.ISTYPE, opcode.CONVERT:
		return 1, true, nil
	case opcode.PUSHDATA1:
		if pos >= len(script) {
			return 0, false, ErrInvalidInstruction
		}
		return int(script[pos]) + 1, true, nil
	case opcode.PUSHDATA2:
		if pos+2 > len(script) {
			return 0, false, ErrInvalidInstruction
		}
		return int(binary.LittleEndian.Uint16(script[pos:])) + 2, true, nil
	case opcode.PUSHDATA4:
		if pos+4 > len(script) {
			return 0, false, ErrInvalidInstruction
		}
		return int(binary.LittleEndian.Uint32(script[pos:])) + 4, true, nil
	default:
		return 0, false, nil
	}
}

// execute dispatches a single decoded instruction against ctx.
func (v *VM) execute(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	switch {
	case op >= opcode.PUSHM1 && op <= opcode.PUSH16:
		ctx.Estack.Push(stackitem.NewInteger(int64(op) - int64(opcode.PUSH0)))
		return nil
	}
	switch op {
	case opcode.PUSHINT8, opcode.PUSHINT16, opcode.PUSHINT32, opcode.PUSHINT64,
		opcode.PUSHINT128, opcode.PUSHINT256:
		it, err := stackitem.NewBigInteger(decodeLEInt(operand))
		if err != nil {
			return err
		}
		ctx.Estack.Push(it)
	case opcode.PUSHNULL:
		ctx.Estack.Push(stackitem.Null{})
	case opcode.PUSHDATA1, opcode.PUSHDATA2, opcode.PUSHDATA4:
		if len(operand) > stackitem.MaxSize {
			return ErrItemTooBig
		}
		ctx.Estack.Push(stackitem.NewByteString(append([]byte(nil), operand...)))
	case opcode.PUSHA:
		ctx.Estack.Push(stackitem.NewPointer(int(int32(binary.LittleEndian.Uint32(operand)))+ctx.IP, ctx.Script))

	case opcode.NOP:
	case opcode.JMP, opcode.JMPL:
		return v.jump(ctx, op, operand)
	case opcode.JMPIF, opcode.JMPIFL:
		return v.jumpIf(ctx, op, operand, true)
	case opcode.JMPIFNOT, opcode.JMPIFNOTL:
		return v.jumpIf(ctx, op, operand, false)
	case opcode.JMPEQ, opcode.JMPEQL, opcode.JMPNE, opcode.JMPNEL,
		opcode.JMPGT, opcode.JMPGTL, opcode.JMPGE, opcode.JMPGEL,
		opcode.JMPLT, opcode.JMPLTL, opcode.JMPLE, opcode.JMPLEL:
		return v.jumpCompare(ctx, op, operand)
	case opcode.CALL, opcode.CALLL:
		return v.call(ctx, op, operand)
	case opcode.CALLA:
		return v.callA(ctx, operand)
	case opcode.ABORT:
		return ErrAborted
	case opcode.ASSERT:
		b := ctx.Estack.Pop()
		if !b.Bool() {
			return ErrAssertFailed
		}
	case opcode.THROW:
		return &FaultException{Err: ErrNoUncaughtHandler, Value: ctx.Estack.Pop()}
	case opcode.TRY, opcode.TRYL:
		return v.loadTry(ctx, op, operand)
	case opcode.ENDTRY, opcode.ENDTRYL:
		return v.endTry(ctx, op, operand)
	case opcode.ENDFINALLY:
		return v.endFinally(ctx)
	case opcode.RET:
		ctx.IP = len(ctx.Script)
	case opcode.SYSCALL:
		return v.syscall(binary.LittleEndian.Uint32(operand))

	case opcode.DEPTH:
		ctx.Estack.Push(stackitem.NewInteger(int64(ctx.Estack.Len())))
	case opcode.DROP:
		ctx.Estack.Pop()
	case opcode.NIP:
		ctx.Estack.Remove(1)
	case opcode.XDROP:
		n := mustInt(ctx.Estack.Pop())
		ctx.Estack.Remove(int(n))
	case opcode.CLEAR:
		ctx.Estack.Clear()
	case opcode.DUP:
		ctx.Estack.Push(ctx.Estack.Peek(0).Dup())
	case opcode.OVER:
		ctx.Estack.Push(ctx.Estack.Peek(1).Dup())
	case opcode.PICK:
		n := mustInt(ctx.Estack.Pop())
		ctx.Estack.Push(ctx.Estack.Peek(int(n)).Dup())
	case opcode.TUCK:
		ctx.Estack.Insert(2, ctx.Estack.Peek(0).Dup())
	case opcode.SWAP:
		a := ctx.Estack.Remove(1)
		ctx.Estack.Push(a)
	case opcode.ROT:
		a := ctx.Estack.Remove(2)
		ctx.Estack.Push(a)
	case opcode.ROLL:
		n := mustInt(ctx.Estack.Pop())
		a := ctx.Estack.Remove(int(n))
		ctx.Estack.Push(a)
	case opcode.REVERSE3:
		reverseTop(ctx.Estack, 3)
	case opcode.REVERSE4:
		reverseTop(ctx.Estack, 4)
	case opcode.REVERSEN:
		n := mustInt(ctx.Estack.Pop())
		reverseTop(ctx.Estack, int(n))

	case opcode.INITSSLOT:
		ctx.StaticFields = make([]stackitem.Item, operand[0])
		for i := range ctx.StaticFields {
			ctx.StaticFields[i] = stackitem.Null{}
		}
	case opcode.INITSLOT:
		ctx.LocalVars = make([]stackitem.Item, operand[0])
		for i := range ctx.LocalVars {
			ctx.LocalVars[i] = stackitem.Null{}
		}
		ctx.Arguments = make([]stackitem.Item, operand[1])
		for i := len(ctx.Arguments) - 1; i >= 0; i-- {
			ctx.Arguments[i] = ctx.Estack.Pop()
		}
	case opcode.LDSFLD0, opcode.LDSFLD:
		ctx.Estack.Push(ctx.StaticFields[slotIndex(op, opcode.LDSFLD0, operand)])
	case opcode.STSFLD0, opcode.STSFLD:
		ctx.StaticFields[slotIndex(op, opcode.STSFLD0, operand)] = ctx.Estack.Pop()
	case opcode.LDLOC0, opcode.LDLOC:
		ctx.Estack.Push(ctx.LocalVars[slotIndex(op, opcode.LDLOC0, operand)])
	case opcode.STLOC0, opcode.STLOC:
		ctx.LocalVars[slotIndex(op, opcode.STLOC0, operand)] = ctx.Estack.Pop()
	case opcode.LDARG0, opcode.LDARG:
		ctx.Estack.Push(ctx.Arguments[slotIndex(op, opcode.LDARG0, operand)])
	case opcode.STARG0, opcode.STARG:
		ctx.Arguments[slotIndex(op, opcode.STARG0, operand)] = ctx.Estack.Pop()

	case opcode.NEWBUFFER:
		n := mustInt(ctx.Estack.Pop())
		if n < 0 || n > stackitem.MaxSize {
			return ErrItemTooBig
		}
		ctx.Estack.Push(stackitem.NewBuffer(make([]byte, n)))
	case opcode.MEMCPY:
		return v.memcpy(ctx)
	case opcode.CAT:
		b := mustBytes(ctx.Estack.Pop())
		a := mustBytes(ctx.Estack.Pop())
		if len(a)+len(b) > stackitem.MaxSize {
			return ErrItemTooBig
		}
		ctx.Estack.Push(stackitem.NewByteString(append(append([]byte(nil), a...), b...)))
	case opcode.SUBSTR:
		count := mustInt(ctx.Estack.Pop())
		index := mustInt(ctx.Estack.Pop())
		s := mustBytes(ctx.Estack.Pop())
		if index < 0 || count < 0 || index+count > int64(len(s)) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(stackitem.NewByteString(append([]byte(nil), s[index:index+count]...)))
	case opcode.LEFT:
		count := mustInt(ctx.Estack.Pop())
		s := mustBytes(ctx.Estack.Pop())
		if count < 0 || count > int64(len(s)) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(stackitem.NewByteString(append([]byte(nil), s[:count]...)))
	case opcode.RIGHT:
		count := mustInt(ctx.Estack.Pop())
		s := mustBytes(ctx.Estack.Pop())
		if count < 0 || count > int64(len(s)) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(stackitem.NewByteString(append([]byte(nil), s[int64(len(s))-count:]...)))

	case opcode.INVERT, opcode.AND, opcode.OR, opcode.XOR, opcode.EQUAL, opcode.NOTEQUAL:
		return v.bitwiseLogic(ctx, op)

	case opcode.SIGN, opcode.ABS, opcode.NEGATE, opcode.INC, opcode.DEC, opcode.SQRT,
		opcode.NOT, opcode.NZ:
		return v.unaryArith(ctx, op)
	case opcode.ADD, opcode.SUB, opcode.MUL, opcode.DIV, opcode.MOD, opcode.POW,
		opcode.SHL, opcode.SHR, opcode.BOOLAND, opcode.BOOLOR, opcode.NUMEQUAL,
		opcode.NUMNOTEQUAL, opcode.LT, opcode.LE, opcode.GT, opcode.GE, opcode.MIN,
		opcode.MAX:
		return v.binaryArith(ctx, op)
	case opcode.MODMUL:
		return v.modmul(ctx)
	case opcode.MODPOW:
		return v.modpow(ctx)
	case opcode.WITHIN:
		b := mustBig(ctx.Estack.Pop())
		a := mustBig(ctx.Estack.Pop())
		x := mustBig(ctx.Estack.Pop())
		ctx.Estack.Push(stackitem.NewBool(x.Cmp(a) >= 0 && x.Cmp(b) < 0))

	case opcode.PACKMAP:
		return v.packMap(ctx)
	case opcode.PACKSTRUCT:
		return v.pack(ctx, true)
	case opcode.PACK:
		return v.pack(ctx, false)
	case opcode.UNPACK:
		return v.unpack(ctx)
	case opcode.NEWARRAY0:
		ctx.Estack.Push(stackitem.NewArray(nil))
	case opcode.NEWARRAY, opcode.NEWARRAYT:
		n := mustInt(ctx.Estack.Pop())
		if n < 0 || n > stackitem.MaxArraySize {
			return ErrArrayTooBig
		}
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = stackitem.Null{}
		}
		ctx.Estack.Push(stackitem.NewArray(items))
	case opcode.NEWSTRUCT0:
		ctx.Estack.Push(stackitem.NewStruct(nil))
	case opcode.NEWSTRUCT:
		n := mustInt(ctx.Estack.Pop())
		if n < 0 || n > stackitem.MaxArraySize {
			return ErrArrayTooBig
		}
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = stackitem.Null{}
		}
		ctx.Estack.Push(stackitem.NewStruct(items))
	case opcode.NEWMAP:
		ctx.Estack.Push(stackitem.NewMap())
	case opcode.SIZE:
		return v.size(ctx)
	case opcode.HASKEY:
		return v.hasKey(ctx)
	case opcode.KEYS:
		m := mustMap(ctx.Estack.Pop())
		ctx.Estack.Push(stackitem.NewArray(m.Keys()))
	case opcode.VALUES:
		return v.values(ctx)
	case opcode.PICKITEM:
		return v.pickItem(ctx)
	case opcode.APPEND:
		return v.appendItem(ctx)
	case opcode.SETITEM:
		return v.setItem(ctx)
	case opcode.REVERSEITEMS:
		it := ctx.Estack.Pop()
		reverseContainer(it)
	case opcode.REMOVE:
		return v.remove(ctx)
	case opcode.CLEARITEMS:
		a, ok := ctx.Estack.Pop().(*stackitem.Array)
		if !ok {
			return stackitem.ErrInvalidConversion
		}
		a.Clear()
	case opcode.POPITEM:
		a, ok := ctx.Estack.Peek(0).(*stackitem.Array)
		if !ok {
			return stackitem.ErrInvalidConversion
		}
		last := a.Get(a.Len() - 1)
		a.Remove(a.Len() - 1)
		ctx.Estack.Pop()
		ctx.Estack.Push(last)

	case opcode.ISNULL:
		_, ok := ctx.Estack.Pop().(stackitem.Null)
		ctx.Estack.Push(stackitem.NewBool(ok))
	case opcode.ISTYPE:
		it := ctx.Estack.Pop()
		ctx.Estack.Push(stackitem.NewBool(it.Type() == stackitem.Type(operand[0])))
	case opcode.CONVERT:
		it := ctx.Estack.Pop()
		converted, err := convertTo(it, stackitem.Type(operand[0]))
		if err != nil {
			return err
		}
		ctx.Estack.Push(converted)

	default:
		return fmt.Errorf("%w: %s", ErrInvalidOpcode, op)
	}
	return nil
}
