package result

import (
	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// StackItem is a contract-value wire DTO, the {"type":...,"value":...}
// convention stackitem.ToJSON/FromJSON already implement for Item; it's
// embedded here so result structs don't have to duplicate the codec.
type StackItem struct {
	Item stackitem.Item
}

// MarshalJSON implements json.Marshaler by delegating to stackitem.ToJSON.
func (s StackItem) MarshalJSON() ([]byte, error) {
	if s.Item == nil {
		return stackitem.ToJSON(stackitem.NewNull())
	}
	return stackitem.ToJSON(s.Item)
}

// UnmarshalJSON implements json.Unmarshaler by delegating to stackitem.FromJSON.
func (s *StackItem) UnmarshalJSON(data []byte) error {
	item, err := stackitem.FromJSON(data)
	if err != nil {
		return err
	}
	s.Item = item
	return nil
}

// Notification is the JSON form of a state.NotificationEvent.
type Notification struct {
	Contract  util.Uint160 `json:"contract"`
	EventName string       `json:"eventname"`
	State     StackItem    `json:"state"`
}

// Invoke is the JSON form of core.Blockchain.InvokeResult, returned by
// invokefunction/invokescript/invokecontractverify (spec §4.L).
type Invoke struct {
	State          string         `json:"state"`
	GasConsumed    string         `json:"gasconsumed"`
	Script         string         `json:"script"`
	Stack          []StackItem    `json:"stack"`
	Notifications  []Notification `json:"notifications"`
	FaultException string         `json:"exception,omitempty"`
}

// NewInvoke converts an invocation outcome into its JSON form. script is
// the script that was actually run, echoed back per convention.
func NewInvoke(vmState vm.State, gasConsumed int64, script []byte, stack []stackitem.Item, notifications []state.NotificationEvent, faultMessage string) Invoke {
	out := Invoke{
		State:          vmState.String(),
		GasConsumed:    fixed8String(gasConsumed),
		Script:         base64String(script),
		FaultException: faultMessage,
	}
	for _, it := range stack {
		out.Stack = append(out.Stack, StackItem{Item: it})
	}
	for _, n := range notifications {
		out.Notifications = append(out.Notifications, Notification{
			Contract:  n.ScriptHash,
			EventName: n.Name,
			State:     StackItem{Item: n.Item},
		})
	}
	return out
}
