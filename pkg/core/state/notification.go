package state

import (
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// NotificationEvent is a single `Notify` emitted during execution,
// ordered and persisted as part of a transaction's application log
// (spec §3.1 "Notification").
type NotificationEvent struct {
	ScriptHash util.Uint160
	Name       string
	Item       stackitem.Item
}

// EncodeBinary implements io.Serializable.
func (n *NotificationEvent) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(n.ScriptHash[:])
	w.WriteString(n.Name)
	b, err := stackitem.Serialize(n.Item)
	if err != nil {
		w.Err = err
		return
	}
	w.WriteVarBytes(b)
}

// DecodeBinary implements io.Serializable.
func (n *NotificationEvent) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(n.ScriptHash[:])
	n.Name = r.ReadString()
	b := r.ReadVarBytes()
	if r.Err != nil {
		return
	}
	item, err := stackitem.Deserialize(b)
	if err != nil {
		r.Err = err
		return
	}
	n.Item = item
}

// VMState mirrors vm.State for persistence, avoiding an import cycle
// between state and its consumers that only need the enum.
type VMState = vm.State

// ExecutionResult is one transaction's (or trigger's) application log
// entry: final VM state, gas spent, notifications emitted and, on an
// uncaught fault, the exception value (spec §4.I step 5, §7 "VM fault").
type ExecutionResult struct {
	Trigger       byte
	VMState       VMState
	GasConsumed   int64
	Stack         []stackitem.Item
	Notifications []NotificationEvent
	FaultMessage  string
}

// EncodeBinary implements io.Serializable.
func (e *ExecutionResult) EncodeBinary(w *io.BinWriter) {
	w.WriteB(e.Trigger)
	w.WriteB(byte(e.VMState))
	w.WriteI64LE(e.GasConsumed)
	w.WriteVarUint(uint64(len(e.Stack)))
	for _, it := range e.Stack {
		b, err := stackitem.Serialize(it)
		if err != nil {
			w.Err = err
			return
		}
		w.WriteVarBytes(b)
	}
	io.WriteArray(w, e.Notifications, func(w *io.BinWriter, n NotificationEvent) { n.EncodeBinary(w) })
	w.WriteString(e.FaultMessage)
}

// DecodeBinary implements io.Serializable.
func (e *ExecutionResult) DecodeBinary(r *io.BinReader) {
	e.Trigger = r.ReadB()
	e.VMState = VMState(r.ReadB())
	e.GasConsumed = r.ReadI64LE()
	n := r.ReadVarUint()
	e.Stack = make([]stackitem.Item, 0, n)
	for i := uint64(0); i < n && r.Err == nil; i++ {
		b := r.ReadVarBytes()
		if r.Err != nil {
			return
		}
		item, err := stackitem.Deserialize(b)
		if err != nil {
			r.Err = err
			return
		}
		e.Stack = append(e.Stack, item)
	}
	e.Notifications = io.ReadArray(r, func(r *io.BinReader) NotificationEvent {
		var n NotificationEvent
		n.DecodeBinary(r)
		return n
	})
	e.FaultMessage = r.ReadString()
}

// AppExecLog groups every trigger's ExecutionResult produced while
// applying one container (transaction, OnPersist or PostPersist), the
// unit exposed by RPC's getapplicationlog (spec §4.L).
type AppExecLog struct {
	Container  util.Uint256
	Executions []ExecutionResult
}

// EncodeBinary implements io.Serializable.
func (a *AppExecLog) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(a.Container[:])
	io.WriteArray(w, a.Executions, func(w *io.BinWriter, e ExecutionResult) { e.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (a *AppExecLog) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(a.Container[:])
	a.Executions = io.ReadArray(r, func(r *io.BinReader) ExecutionResult {
		var e ExecutionResult
		e.DecodeBinary(r)
		return e
	})
}
