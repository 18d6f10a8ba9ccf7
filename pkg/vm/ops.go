package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/vm/opcode"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

func sha256Sum(b []byte) [32]byte { return sha256.Sum256(b) }

func decodeLEInt(b []byte) *big.Int { return bigint.FromBytes(b) }

// mustInt returns the item's integer value, panicking (recovered by
// safeExecute) on a non-numeric item.
func mustInt(it stackitem.Item) int64 {
	n, err := it.TryInteger()
	if err != nil {
		panic(err)
	}
	return n.Int64()
}

func mustBig(it stackitem.Item) *big.Int {
	n, err := it.TryInteger()
	if err != nil {
		panic(err)
	}
	return n
}

func mustBytes(it stackitem.Item) []byte {
	b, err := it.TryBytes()
	if err != nil {
		panic(err)
	}
	return b
}

func mustMap(it stackitem.Item) *stackitem.Map {
	m, ok := it.(*stackitem.Map)
	if !ok {
		panic(stackitem.ErrInvalidConversion)
	}
	return m
}

func mustArray(it stackitem.Item) *stackitem.Array {
	switch a := it.(type) {
	case *stackitem.Array:
		return a
	case *stackitem.Struct:
		items := make([]stackitem.Item, a.Len())
		for i := range items {
			items[i] = a.Get(i)
		}
		return stackitem.NewArray(items)
	}
	panic(stackitem.ErrInvalidConversion)
}

// slotIndex resolves a slot-access opcode's operand to an index: the
// *0 variant is implicitly index 0, the indexed variant reads its
// single-byte operand.
func slotIndex(op, zeroOp opcode.Opcode, operand []byte) int {
	if op == zeroOp {
		return 0
	}
	return int(operand[0])
}

func reverseTop(s *Stack, n int) {
	if n <= 1 {
		return
	}
	items := make([]stackitem.Item, n)
	for i := 0; i < n; i++ {
		items[i] = s.Remove(0)
	}
	for _, it := range items {
		s.Insert(0, it)
	}
}

func reverseContainer(it stackitem.Item) {
	switch c := it.(type) {
	case *stackitem.Array:
		c.Reverse()
	case *stackitem.Struct:
		for i, j := 0, c.Len()-1; i < j; i, j = i+1, j-1 {
			vi, vj := c.Get(i), c.Get(j)
			c.Set(i, vj)
			c.Set(j, vi)
		}
	}
}

func (v *VM) jump(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	target, err := resolveJumpTarget(ctx, op, operand, offsetOf(ctx, op))
	if err != nil {
		return err
	}
	ctx.IP = target
	return nil
}

func (v *VM) jumpIf(ctx *ExecutionContext, op opcode.Opcode, operand []byte, want bool) error {
	base := offsetOf(ctx, op)
	cond := ctx.Estack.Pop().Bool()
	if cond != want {
		return nil
	}
	target, err := resolveJumpTarget(ctx, op, operand, base)
	if err != nil {
		return err
	}
	ctx.IP = target
	return nil
}

func (v *VM) jumpCompare(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	base := offsetOf(ctx, op)
	b := mustBig(ctx.Estack.Pop())
	a := mustBig(ctx.Estack.Pop())
	cmp := a.Cmp(b)
	var take bool
	switch unLong(op) {
	case opcode.JMPEQ:
		take = cmp == 0
	case opcode.JMPNE:
		take = cmp != 0
	case opcode.JMPGT:
		take = cmp > 0
	case opcode.JMPGE:
		take = cmp >= 0
	case opcode.JMPLT:
		take = cmp < 0
	case opcode.JMPLE:
		take = cmp <= 0
	}
	if !take {
		return nil
	}
	target, err := resolveJumpTarget(ctx, op, operand, base)
	if err != nil {
		return err
	}
	ctx.IP = target
	return nil
}

// unLong maps a long-form jump opcode back to its short-form sibling for
// a single comparison switch.
func unLong(op opcode.Opcode) opcode.Opcode {
	switch op {
	case opcode.JMPEQL:
		return opcode.JMPEQ
	case opcode.JMPNEL:
		return opcode.JMPNE
	case opcode.JMPGTL:
		return opcode.JMPGT
	case opcode.JMPGEL:
		return opcode.JMPGE
	case opcode.JMPLTL:
		return opcode.JMPLT
	case opcode.JMPLEL:
		return opcode.JMPLE
	}
	return op
}

// offsetOf returns the script offset of the opcode byte itself, which
// relative jump operands are measured from.
func offsetOf(ctx *ExecutionContext, op opcode.Opcode) int {
	return ctx.IP - operandLenFor(op) - 1
}

func operandLenFor(op opcode.Opcode) int {
	if op.HasLongJumpVariant() {
		return 4
	}
	return 1
}

func resolveJumpTarget(ctx *ExecutionContext, op opcode.Opcode, operand []byte, base int) (int, error) {
	var rel int
	if op.HasLongJumpVariant() {
		rel = int(int32(binary.LittleEndian.Uint32(operand)))
	} else {
		rel = int(int8(operand[0]))
	}
	target := base + rel
	if target < 0 || target > len(ctx.Script) {
		return 0, ErrInvalidJumpTarget
	}
	return target, nil
}

func (v *VM) call(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	base := offsetOf(ctx, op)
	target, err := resolveJumpTarget(ctx, op, operand, base)
	if err != nil {
		return err
	}
	newCtx, err := v.LoadScript(ctx.Script, -1, ctx.GetCallFlags(), ctx.ContractHash)
	if err != nil {
		return err
	}
	newCtx.IP = target
	return nil
}

func (v *VM) callA(ctx *ExecutionContext, operand []byte) error {
	ptr, ok := ctx.Estack.Pop().(*stackitem.Pointer)
	if !ok {
		return stackitem.ErrInvalidConversion
	}
	newCtx, err := v.LoadScript(ptr.Script, -1, ctx.GetCallFlags(), ctx.ContractHash)
	if err != nil {
		return err
	}
	newCtx.IP = ptr.Position
	return nil
}

func (v *VM) loadTry(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	opLen := 2
	if op == opcode.TRYL {
		opLen = 8
	}
	base := ctx.IP - opLen - 1
	var catchRel, finallyRel int
	hasCatch, hasFinally := true, true
	if op == opcode.TRYL {
		catchRel = int(int32(binary.LittleEndian.Uint32(operand[0:4])))
		finallyRel = int(int32(binary.LittleEndian.Uint32(operand[4:8])))
	} else {
		catchRel = int(int8(operand[0]))
		finallyRel = int(int8(operand[1]))
	}
	if catchRel == 0 {
		hasCatch = false
	}
	if finallyRel == 0 {
		hasFinally = false
	}
	ctx.PushTry(base+catchRel, base+finallyRel, hasCatch, hasFinally)
	return nil
}

func (v *VM) endTry(ctx *ExecutionContext, op opcode.Opcode, operand []byte) error {
	base := offsetOf(ctx, op)
	tb, ok := ctx.PopTry()
	if !ok {
		return ErrNoUncaughtHandler
	}
	var rel int
	if op == opcode.ENDTRYL {
		rel = int(int32(binary.LittleEndian.Uint32(operand)))
	} else {
		rel = int(int8(operand[0]))
	}
	if tb.hasFinally {
		ctx.PushTry(0, tb.FinallyOffset, false, true)
		ctx.IP = tb.FinallyOffset
		ctx.tryStack[len(ctx.tryStack)-1].CatchOffset = base + rel
		return nil
	}
	ctx.IP = base + rel
	return nil
}

func (v *VM) endFinally(ctx *ExecutionContext) error {
	tb, ok := ctx.PopTry()
	if !ok {
		return ErrNoUncaughtHandler
	}
	ctx.IP = tb.CatchOffset
	return nil
}

func (v *VM) syscall(id uint32) error {
	h, ok := v.interops[id]
	if !ok {
		return ErrUnknownSyscall
	}
	ctx := v.CurrentContext()
	if !ctx.GetCallFlags().Has(h.Required) {
		return ErrDisallowedSyscall
	}
	if err := v.addGas(h.Price); err != nil {
		return err
	}
	return h.Func(v)
}

func (v *VM) memcpy(ctx *ExecutionContext) error {
	count := mustInt(ctx.Estack.Pop())
	srcIndex := mustInt(ctx.Estack.Pop())
	src := mustBytes(ctx.Estack.Pop())
	dstIndex := mustInt(ctx.Estack.Pop())
	dstItem, ok := ctx.Estack.Pop().(*stackitem.Buffer)
	if !ok {
		return stackitem.ErrInvalidConversion
	}
	if count < 0 || srcIndex < 0 || dstIndex < 0 {
		return stackitem.ErrInvalidConversion
	}
	if srcIndex+count > int64(len(src)) || dstIndex+count > int64(len(dstItem.Bytes())) {
		return stackitem.ErrInvalidConversion
	}
	copy(dstItem.Bytes()[dstIndex:dstIndex+count], src[srcIndex:srcIndex+count])
	return nil
}

func (v *VM) bitwiseLogic(ctx *ExecutionContext, op opcode.Opcode) error {
	switch op {
	case opcode.INVERT:
		x := mustBig(ctx.Estack.Pop())
		it, err := stackitem.NewBigInteger(new(big.Int).Not(x))
		if err != nil {
			return err
		}
		ctx.Estack.Push(it)
	case opcode.AND, opcode.OR, opcode.XOR:
		b := mustBig(ctx.Estack.Pop())
		a := mustBig(ctx.Estack.Pop())
		r := new(big.Int)
		switch op {
		case opcode.AND:
			r.And(a, b)
		case opcode.OR:
			r.Or(a, b)
		case opcode.XOR:
			r.Xor(a, b)
		}
		it, err := stackitem.NewBigInteger(r)
		if err != nil {
			return err
		}
		ctx.Estack.Push(it)
	case opcode.EQUAL, opcode.NOTEQUAL:
		b := ctx.Estack.Pop()
		a := ctx.Estack.Pop()
		eq := a.Equals(b)
		if op == opcode.NOTEQUAL {
			eq = !eq
		}
		ctx.Estack.Push(stackitem.NewBool(eq))
	}
	return nil
}

func (v *VM) unaryArith(ctx *ExecutionContext, op opcode.Opcode) error {
	switch op {
	case opcode.NOT:
		b := ctx.Estack.Pop().Bool()
		ctx.Estack.Push(stackitem.NewBool(!b))
		return nil
	case opcode.NZ:
		x := mustBig(ctx.Estack.Pop())
		ctx.Estack.Push(stackitem.NewBool(x.Sign() != 0))
		return nil
	}
	x := mustBig(ctx.Estack.Pop())
	r := new(big.Int)
	switch op {
	case opcode.SIGN:
		ctx.Estack.Push(stackitem.NewInteger(int64(x.Sign())))
		return nil
	case opcode.ABS:
		r.Abs(x)
	case opcode.NEGATE:
		r.Neg(x)
	case opcode.INC:
		r.Add(x, big.NewInt(1))
	case opcode.DEC:
		r.Sub(x, big.NewInt(1))
	case opcode.SQRT:
		if x.Sign() < 0 {
			return stackitem.ErrInvalidConversion
		}
		r.Sqrt(x)
	}
	it, err := stackitem.NewBigInteger(r)
	if err != nil {
		return err
	}
	ctx.Estack.Push(it)
	return nil
}

func (v *VM) binaryArith(ctx *ExecutionContext, op opcode.Opcode) error {
	switch op {
	case opcode.BOOLAND:
		b := ctx.Estack.Pop().Bool()
		a := ctx.Estack.Pop().Bool()
		ctx.Estack.Push(stackitem.NewBool(a && b))
		return nil
	case opcode.BOOLOR:
		b := ctx.Estack.Pop().Bool()
		a := ctx.Estack.Pop().Bool()
		ctx.Estack.Push(stackitem.NewBool(a || b))
		return nil
	}
	b := mustBig(ctx.Estack.Pop())
	a := mustBig(ctx.Estack.Pop())
	switch op {
	case opcode.NUMEQUAL:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) == 0))
		return nil
	case opcode.NUMNOTEQUAL:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) != 0))
		return nil
	case opcode.LT:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) < 0))
		return nil
	case opcode.LE:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) <= 0))
		return nil
	case opcode.GT:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) > 0))
		return nil
	case opcode.GE:
		ctx.Estack.Push(stackitem.NewBool(a.Cmp(b) >= 0))
		return nil
	}
	r := new(big.Int)
	switch op {
	case opcode.ADD:
		r.Add(a, b)
	case opcode.SUB:
		r.Sub(a, b)
	case opcode.MUL:
		r.Mul(a, b)
	case opcode.DIV:
		if b.Sign() == 0 {
			return stackitem.ErrInvalidConversion
		}
		r.Quo(a, b)
	case opcode.MOD:
		if b.Sign() == 0 {
			return stackitem.ErrInvalidConversion
		}
		r.Rem(a, b)
	case opcode.POW:
		if !b.IsInt64() || b.Int64() < 0 || b.Int64() > 256 {
			return stackitem.ErrInvalidConversion
		}
		r.Exp(a, b, nil)
	case opcode.SHL:
		r.Lsh(a, uint(b.Int64()))
	case opcode.SHR:
		r.Rsh(a, uint(b.Int64()))
	case opcode.MIN:
		if a.Cmp(b) <= 0 {
			r.Set(a)
		} else {
			r.Set(b)
		}
	case opcode.MAX:
		if a.Cmp(b) >= 0 {
			r.Set(a)
		} else {
			r.Set(b)
		}
	}
	it, err := stackitem.NewBigInteger(r)
	if err != nil {
		return err
	}
	ctx.Estack.Push(it)
	return nil
}

func (v *VM) modmul(ctx *ExecutionContext) error {
	m := mustBig(ctx.Estack.Pop())
	b := mustBig(ctx.Estack.Pop())
	a := mustBig(ctx.Estack.Pop())
	if m.Sign() == 0 {
		return stackitem.ErrInvalidConversion
	}
	r := new(big.Int).Mod(new(big.Int).Mul(a, b), m)
	it, err := stackitem.NewBigInteger(r)
	if err != nil {
		return err
	}
	ctx.Estack.Push(it)
	return nil
}

func (v *VM) modpow(ctx *ExecutionContext) error {
	m := mustBig(ctx.Estack.Pop())
	e := mustBig(ctx.Estack.Pop())
	a := mustBig(ctx.Estack.Pop())
	if m.Sign() == 0 {
		return stackitem.ErrInvalidConversion
	}
	var r *big.Int
	if e.Sign() < 0 {
		inv := new(big.Int).ModInverse(a, m)
		if inv == nil {
			return stackitem.ErrInvalidConversion
		}
		r = new(big.Int).Exp(inv, new(big.Int).Neg(e), m)
	} else {
		r = new(big.Int).Exp(a, e, m)
	}
	it, err := stackitem.NewBigInteger(r)
	if err != nil {
		return err
	}
	ctx.Estack.Push(it)
	return nil
}

func (v *VM) pack(ctx *ExecutionContext, asStruct bool) error {
	n := mustInt(ctx.Estack.Pop())
	if n < 0 || n > stackitem.MaxArraySize {
		return ErrArrayTooBig
	}
	items := make([]stackitem.Item, n)
	for i := int64(0); i < n; i++ {
		items[i] = ctx.Estack.Pop()
	}
	if asStruct {
		ctx.Estack.Push(stackitem.NewStruct(items))
	} else {
		ctx.Estack.Push(stackitem.NewArray(items))
	}
	return nil
}

func (v *VM) packMap(ctx *ExecutionContext) error {
	n := mustInt(ctx.Estack.Pop())
	m := stackitem.NewMap()
	for i := int64(0); i < n; i++ {
		val := ctx.Estack.Pop()
		key := ctx.Estack.Pop()
		m.Set(key, val)
	}
	ctx.Estack.Push(m)
	return nil
}

func (v *VM) unpack(ctx *ExecutionContext) error {
	a := mustArray(ctx.Estack.Pop())
	for i := a.Len() - 1; i >= 0; i-- {
		ctx.Estack.Push(a.Get(i))
	}
	ctx.Estack.Push(stackitem.NewInteger(int64(a.Len())))
	return nil
}

func (v *VM) size(ctx *ExecutionContext) error {
	it := ctx.Estack.Pop()
	switch c := it.(type) {
	case *stackitem.Array:
		ctx.Estack.Push(stackitem.NewInteger(int64(c.Len())))
	case *stackitem.Struct:
		ctx.Estack.Push(stackitem.NewInteger(int64(c.Len())))
	case *stackitem.Map:
		ctx.Estack.Push(stackitem.NewInteger(int64(len(c.Keys()))))
	default:
		b := mustBytes(it)
		ctx.Estack.Push(stackitem.NewInteger(int64(len(b))))
	}
	return nil
}

func (v *VM) hasKey(ctx *ExecutionContext) error {
	key := ctx.Estack.Pop()
	switch c := ctx.Estack.Pop().(type) {
	case *stackitem.Map:
		_, ok := c.Get(key)
		ctx.Estack.Push(stackitem.NewBool(ok))
	case *stackitem.Array:
		idx := mustInt(key)
		ctx.Estack.Push(stackitem.NewBool(idx >= 0 && idx < int64(c.Len())))
	default:
		return stackitem.ErrInvalidConversion
	}
	return nil
}

func (v *VM) values(ctx *ExecutionContext) error {
	m := mustMap(ctx.Estack.Pop())
	vals := m.Values()
	out := make([]stackitem.Item, len(vals))
	for i, it := range vals {
		out[i] = it.Dup()
	}
	ctx.Estack.Push(stackitem.NewArray(out))
	return nil
}

func (v *VM) pickItem(ctx *ExecutionContext) error {
	key := ctx.Estack.Pop()
	switch c := ctx.Estack.Pop().(type) {
	case *stackitem.Map:
		val, ok := c.Get(key)
		if !ok {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(val)
	case *stackitem.Array:
		idx := mustInt(key)
		if idx < 0 || idx >= int64(c.Len()) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(c.Get(int(idx)))
	case *stackitem.Struct:
		idx := mustInt(key)
		if idx < 0 || idx >= int64(c.Len()) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(c.Get(int(idx)))
	default:
		b := mustBytes(c)
		idx := mustInt(key)
		if idx < 0 || idx >= int64(len(b)) {
			return stackitem.ErrInvalidConversion
		}
		ctx.Estack.Push(stackitem.NewInteger(int64(b[idx])))
	}
	return nil
}

func (v *VM) appendItem(ctx *ExecutionContext) error {
	item := ctx.Estack.Pop()
	switch c := ctx.Estack.Pop().(type) {
	case *stackitem.Array:
		if c.Len() >= stackitem.MaxArraySize {
			return ErrArrayTooBig
		}
		c.Append(item.Dup())
	default:
		return stackitem.ErrInvalidConversion
	}
	return nil
}

func (v *VM) setItem(ctx *ExecutionContext) error {
	val := ctx.Estack.Pop()
	key := ctx.Estack.Pop()
	switch c := ctx.Estack.Pop().(type) {
	case *stackitem.Map:
		c.Set(key, val)
	case *stackitem.Array:
		idx := mustInt(key)
		if idx < 0 || idx >= int64(c.Len()) {
			return stackitem.ErrInvalidConversion
		}
		c.Set(int(idx), val)
	default:
		return stackitem.ErrInvalidConversion
	}
	return nil
}

func (v *VM) remove(ctx *ExecutionContext) error {
	key := ctx.Estack.Pop()
	switch c := ctx.Estack.Pop().(type) {
	case *stackitem.Map:
		c.Delete(key)
	case *stackitem.Array:
		idx := mustInt(key)
		if idx < 0 || idx >= int64(c.Len()) {
			return stackitem.ErrInvalidConversion
		}
		c.Remove(int(idx))
	default:
		return stackitem.ErrInvalidConversion
	}
	return nil
}

func convertTo(it stackitem.Item, t stackitem.Type) (stackitem.Item, error) {
	if it.Type() == t {
		return it, nil
	}
	switch t {
	case stackitem.BooleanT:
		return stackitem.NewBool(it.Bool()), nil
	case stackitem.IntegerT:
		n, err := it.TryInteger()
		if err != nil {
			return nil, err
		}
		return stackitem.NewBigInteger(n)
	case stackitem.ByteStringT:
		b, err := it.TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case stackitem.BufferT:
		b, err := it.TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewBuffer(b), nil
	case stackitem.ArrayT:
		if s, ok := it.(*stackitem.Struct); ok {
			items := make([]stackitem.Item, s.Len())
			for i := range items {
				items[i] = s.Get(i)
			}
			return stackitem.NewArray(items), nil
		}
	}
	return nil, stackitem.ErrInvalidConversion
}
