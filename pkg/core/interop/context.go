// Package interop wires the VM's syscall table to chain state: the
// System.* interop functions and the native-contract dispatch they share
// (spec §4.D "Interop (syscalls)", §4.E "Native contracts").
package interop

import (
	"fmt"
	"sort"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// Ledger is the read surface a Context needs from the chain, kept
// narrow so native contracts and tests can supply a stub (grounded on
// the upstream interop.Ledger interface shape).
type Ledger interface {
	BlockHeight() uint32
	CurrentBlockHash() util.Uint256
	GetHeaderHash(index uint32) util.Uint256
	GetBlock(hash util.Uint256) (*block.Block, error)
	GetTransaction(hash util.Uint256) (*transaction.Transaction, uint32, error)
}

// Contract is the interface every native contract implements, dispatched
// by System.Contract.CallNative instead of running VM bytecode
// (spec §4.E.9).
type Contract interface {
	Metadata() *ContractMD
	OnPersist(*Context) error
	PostPersist(*Context) error
	Invoke(ic *Context, method string, args []stackitem.Item) (stackitem.Item, error)
}

// ContractMD is a native contract's fixed identity and declared ABI
// surface (spec §4.E.9 "fixed contract id").
type ContractMD struct {
	ID      int32
	Hash    util.Uint160
	Name    string
	Methods []MethodDescriptor
}

// MethodDescriptor documents one native method's required call flags and
// gas price, used both for dispatch validation and manifest generation.
type MethodDescriptor struct {
	Name          string
	ParamCount    int
	Price         int64
	RequiredFlags callflag.CallFlag
	Safe          bool
}

// Context is the per-invocation state native contracts and interop
// functions read and mutate: the active trigger, the persisting block
// (if any), the triggering transaction (if any), the DAO view, and the
// notifications accumulated so far (spec §4.D "ExecutionEngine").
type Context struct {
	Chain         Ledger
	Trigger       trigger.Type
	Block         *block.Block
	Tx            *transaction.Transaction
	DAO           *storage.DataCache
	Natives       map[util.Uint160]Contract
	NativesByID   map[int32]Contract
	Notifications []state.NotificationEvent
	Log           *zap.Logger
	VM            *vm.VM
	Invocations   map[util.Uint160]int
	signers       []transaction.Signer
}

// NewContext creates a Context ready to spawn a VM.
func NewContext(t trigger.Type, chain Ledger, dao *storage.DataCache, blk *block.Block, tx *transaction.Transaction, log *zap.Logger) *Context {
	return &Context{
		Chain:       chain,
		Trigger:     t,
		Block:       blk,
		Tx:          tx,
		DAO:         dao,
		Natives:     make(map[util.Uint160]Contract),
		NativesByID: make(map[int32]Contract),
		Log:         log,
		Invocations: make(map[util.Uint160]int),
	}
}

// RegisterNative adds c to the set reachable via System.Contract.Call /
// CallNative.
func (ic *Context) RegisterNative(c Contract) {
	md := c.Metadata()
	ic.Natives[md.Hash] = c
	ic.NativesByID[md.ID] = c
}

// NativeByHash looks up a registered native contract by its fixed hash.
func (ic *Context) NativeByHash(h util.Uint160) (Contract, bool) {
	c, ok := ic.Natives[h]
	return c, ok
}

// Signers returns the signer list witnessing the current execution,
// overridable for RPC's invokefunction/invokescript (spec §4.L) which
// run with caller-supplied signers rather than a real transaction's.
func (ic *Context) Signers() []transaction.Signer {
	if ic.signers != nil {
		return ic.signers
	}
	if ic.Tx != nil {
		return ic.Tx.Signers
	}
	return nil
}

// UseSigners overrides the signer list (spec §4.L invokefunction/invokescript).
func (ic *Context) UseSigners(s []transaction.Signer) { ic.signers = s }

// Container returns the hashable object whose hash a CheckWitness digest
// is computed over: the transaction if one is executing, else the
// persisting block.
func (ic *Context) Container() interface {
	Hash() util.Uint256
} {
	if ic.Tx != nil {
		return ic.Tx
	}
	return &ic.Block.Header
}

// BlockHeight returns the latest persisted height, accounting for a
// block currently being persisted (spec §4.I step 4-6: natives observe
// state as of "just before this block" during OnPersist).
func (ic *Context) BlockHeight() uint32 {
	if ic.Block != nil && ic.Block.Header.Index > 0 {
		return ic.Block.Header.Index - 1
	}
	return ic.Chain.BlockHeight()
}

// AddNotification records a Notify event (spec §3.1 "Notification").
func (ic *Context) AddNotification(h util.Uint160, name string, item stackitem.Item) {
	ic.Notifications = append(ic.Notifications, state.NotificationEvent{
		ScriptHash: h,
		Name:       name,
		Item:       item,
	})
}

// SpawnVM creates a VM bound to ic's trigger and DAO, with every
// registered System.* interop and native-dispatch syscall installed.
func (ic *Context) SpawnVM(gasLimit int64) *vm.VM {
	v := vm.New(ic.Trigger, gasLimit, ic.DAO)
	ic.VM = v
	RegisterSyscalls(ic, v)
	return v
}

// SortedNatives returns registered natives ordered by ID, the order
// OnPersist/PostPersist hooks run in (spec §4.I steps 4, 6).
func (ic *Context) SortedNatives() []Contract {
	out := make([]Contract, 0, len(ic.NativesByID))
	ids := make([]int32, 0, len(ic.NativesByID))
	for id := range ic.NativesByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out = append(out, ic.NativesByID[id])
	}
	return out
}

// CallNative dispatches a System.Contract.CallNative invocation: look up
// the target contract by the call's context hash and run its method.
func (ic *Context) CallNative(target util.Uint160, method string, args []stackitem.Item) (stackitem.Item, error) {
	c, ok := ic.Natives[target]
	if !ok {
		return nil, fmt.Errorf("interop: no native contract at %s", target)
	}
	return c.Invoke(ic, method, args)
}
