package result

import (
	"encoding/json"
	"fmt"

	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
)

// Execution is the JSON form of one state.ExecutionResult, one entry
// per trigger a container ran under (Application/Verification for
// transactions, OnPersist/PostPersist for blocks).
type Execution struct {
	Trigger       string         `json:"trigger"`
	VMState       string         `json:"vmstate"`
	GasConsumed   string         `json:"gasconsumed"`
	Stack         []StackItem    `json:"stack"`
	Notifications []Notification `json:"notifications"`
	Exception     string         `json:"exception,omitempty"`
}

func newExecution(e state.ExecutionResult) Execution {
	out := Execution{
		Trigger:     trigger.Type(e.Trigger).String(),
		VMState:     e.VMState.String(),
		GasConsumed: fixed8String(e.GasConsumed),
		Exception:   e.FaultMessage,
	}
	for _, it := range e.Stack {
		out.Stack = append(out.Stack, StackItem{Item: it})
	}
	for _, n := range e.Notifications {
		out.Notifications = append(out.Notifications, Notification{
			Contract:  n.ScriptHash,
			EventName: n.Name,
			State:     StackItem{Item: n.Item},
		})
	}
	return out
}

// ApplicationLog is the JSON form of state.AppExecLog (getapplicationlog,
// spec §4.L). Its container is reported under "txid" for transactions and
// "blockhash" for blocks, distinguished the same way the reference node's
// custom marshaler does: by whether the first execution's trigger is
// Application (transaction) or something else (block).
type ApplicationLog struct {
	Container  util.Uint256
	Executions []Execution
}

// NewApplicationLog converts a ledger AppExecLog into its JSON form.
func NewApplicationLog(log *state.AppExecLog) ApplicationLog {
	out := ApplicationLog{Container: log.Container}
	for _, e := range log.Executions {
		out.Executions = append(out.Executions, newExecution(e))
	}
	return out
}

type applicationLogAux struct {
	TxHash     *util.Uint256 `json:"txid,omitempty"`
	BlockHash  *util.Uint256 `json:"blockhash,omitempty"`
	Executions []Execution   `json:"executions"`
}

// MarshalJSON implements json.Marshaler.
func (l ApplicationLog) MarshalJSON() ([]byte, error) {
	aux := applicationLogAux{Executions: l.Executions}
	container := l.Container
	if len(l.Executions) > 0 && l.Executions[0].Trigger == trigger.Application.String() {
		aux.TxHash = &container
	} else {
		aux.BlockHash = &container
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ApplicationLog) UnmarshalJSON(data []byte) error {
	var aux applicationLogAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.TxHash != nil:
		l.Container = *aux.TxHash
	case aux.BlockHash != nil:
		l.Container = *aux.BlockHash
	default:
		return fmt.Errorf("result: application log missing txid/blockhash")
	}
	l.Executions = aux.Executions
	return nil
}
