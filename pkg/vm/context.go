package vm

import (
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// TryBlock records an active TRY handler: the offsets to jump to for the
// catch and finally clauses (spec §4.D "Try/catch"); zero means absent.
type TryBlock struct {
	CatchOffset   int
	FinallyOffset int
	hasCatch      bool
	hasFinally    bool
}

// ExecutionContext is one call frame: its own instruction pointer,
// evaluation stack, slots and try-stack (spec §4.D).
type ExecutionContext struct {
	Script        []byte
	IP            int
	callFlags     callflag.CallFlag
	ContractHash  util.Uint160
	RVCount       int // expected return value count, -1 = any
	Estack        *Stack
	StaticFields  []stackitem.Item
	LocalVars     []stackitem.Item
	Arguments     []stackitem.Item
	tryStack      []*TryBlock
	callingCtx    *ExecutionContext
}

// NewExecutionContext creates a frame over script with the given call
// flags and owning contract hash.
func NewExecutionContext(script []byte, rvcount int, flags callflag.CallFlag, contractHash util.Uint160, refs *stackitem.RefCounter) *ExecutionContext {
	return &ExecutionContext{
		Script:       script,
		RVCount:      rvcount,
		callFlags:    flags,
		ContractHash: contractHash,
		Estack:       newStack(refs),
	}
}

// GetCallFlags returns the flags this context was loaded with.
func (c *ExecutionContext) GetCallFlags() callflag.CallFlag { return c.callFlags }

// PushTry pushes a new try-handler frame.
func (c *ExecutionContext) PushTry(catch, finally int, hasCatch, hasFinally bool) {
	c.tryStack = append(c.tryStack, &TryBlock{CatchOffset: catch, FinallyOffset: finally, hasCatch: hasCatch, hasFinally: hasFinally})
}

// PopTry removes and returns the innermost try-handler frame, if any.
func (c *ExecutionContext) PopTry() (*TryBlock, bool) {
	if len(c.tryStack) == 0 {
		return nil, false
	}
	t := c.tryStack[len(c.tryStack)-1]
	c.tryStack = c.tryStack[:len(c.tryStack)-1]
	return t, true
}

// TopTry returns the innermost try-handler frame without removing it.
func (c *ExecutionContext) TopTry() (*TryBlock, bool) {
	if len(c.tryStack) == 0 {
		return nil, false
	}
	return c.tryStack[len(c.tryStack)-1], true
}

func (c *ExecutionContext) atEnd() bool { return c.IP >= len(c.Script) }
