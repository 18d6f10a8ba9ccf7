package native

import (
	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

const (
	mgmtPrefixNextID        byte = 0x0f
	mgmtPrefixMinDeployFee  byte = 0x14
	defaultMinDeploymentFee      = 10_00000000 // 10 GAS, spec §4.E.3
)

// ContractManagement handles deployment, update and destruction of
// ordinary (non-native) contracts (spec §4.E.3).
type ContractManagement struct {
	md *interop.ContractMD
}

// NewContractManagement constructs the ContractManagement native.
func NewContractManagement() *ContractManagement {
	m := &ContractManagement{}
	m.md = &interop.ContractMD{
		ID:   IDContractManagement,
		Hash: nativeHash("ContractManagement"),
		Name: "ContractManagement",
		Methods: []interop.MethodDescriptor{
			{Name: "deploy", ParamCount: 2, RequiredFlags: callflag.All},
			{Name: "deployWithData", ParamCount: 3, RequiredFlags: callflag.All},
			{Name: "update", ParamCount: 2, RequiredFlags: callflag.All},
			{Name: "destroy", RequiredFlags: callflag.All},
			{Name: "getContract", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getContractById", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "setMinimumDeploymentFee", ParamCount: 1, RequiredFlags: callflag.WriteStates},
		},
	}
	return m
}

// Metadata implements interop.Contract.
func (m *ContractManagement) Metadata() *interop.ContractMD { return m.md }

// OnPersist seeds the contract-id counter at genesis.
func (m *ContractManagement) OnPersist(ic *interop.Context) error {
	if ic.Block == nil || ic.Block.Header.Index != 0 {
		return nil
	}
	return putItem(ic, m.md.ID, mgmtPrefixNextID, nil, []byte{1, 0, 0, 0})
}

// PostPersist is a no-op for ContractManagement.
func (m *ContractManagement) PostPersist(*interop.Context) error { return nil }

func (m *ContractManagement) nextID(ic *interop.Context) (int32, error) {
	v, ok := getItem(ic, m.md.ID, mgmtPrefixNextID, nil)
	id := int32(1)
	if ok && len(v) >= 4 {
		id = int32(v[0]) | int32(v[1])<<8 | int32(v[2])<<16 | int32(v[3])<<24
	}
	next := id + 1
	nb := []byte{byte(next), byte(next >> 8), byte(next >> 16), byte(next >> 24)}
	if err := putItem(ic, m.md.ID, mgmtPrefixNextID, nil, nb); err != nil {
		return 0, err
	}
	return id, nil
}

func (m *ContractManagement) getContractState(ic *interop.Context, hash util.Uint160) (*state.Contract, error) {
	data, err := ic.DAO.Get(storage.AppendPrefix(storage.STContract, hash[:]))
	if err != nil {
		return nil, err
	}
	c := new(state.Contract)
	r := io.NewBinReaderFromBuf(data)
	c.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return c, nil
}

// GetContract exposes the stored contract record for hash to external
// read-only callers (RPC's getcontractstate, getcontractbyid).
func (m *ContractManagement) GetContract(ic *interop.Context, hash util.Uint160) (*state.Contract, error) {
	return m.getContractState(ic, hash)
}

func (m *ContractManagement) putContractState(ic *interop.Context, c *state.Contract) error {
	w := io.NewBufBinWriter()
	c.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return ic.DAO.Put(storage.AppendPrefix(storage.STContract, c.Hash[:]), w.Bytes())
}

// deployContract implements the `deploy` ABI method (spec §4.E.3): mint a
// fresh id, derive the deterministic hash, persist and invoke `_deploy`.
func (m *ContractManagement) deployContract(ic *interop.Context, nefBytes, manifestBytes, data []byte) (*state.Contract, error) {
	nef := new(smartcontract.NefFile)
	r := io.NewBinReaderFromBuf(nefBytes)
	nef.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	manifest, err := smartcontract.UnmarshalManifest(manifestBytes)
	if err != nil {
		return nil, err
	}
	sender := ic.Tx.Sender()
	contractHash := state.CreateContractHash(sender, 0, manifest.Name)
	if _, err := m.getContractState(ic, contractHash); err == nil {
		return nil, errContractExists
	}
	id, err := m.nextID(ic)
	if err != nil {
		return nil, err
	}
	c := &state.Contract{ID: id, Hash: contractHash, NEF: *nef, Manifest: *manifest}
	if err := m.putContractState(ic, c); err != nil {
		return nil, err
	}
	ic.AddNotification(m.md.Hash, "Deploy", stackitem.NewByteString(contractHash[:]))
	if _, ok := manifest.ABI.FindMethod("_deploy", 2); ok {
		_, err := ic.CallNative(contractHash, "_deploy", []stackitem.Item{
			bytesOrNull(data), stackitem.NewBool(false),
		})
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func bytesOrNull(b []byte) stackitem.Item {
	if b == nil {
		return stackitem.NewNull()
	}
	return stackitem.NewByteString(b)
}

var errContractExists = stackItemError("native: contract already deployed")
var errContractNotFound = stackItemError("native: contract not found")

// Invoke implements interop.Contract.
func (m *ContractManagement) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "deploy", "deployWithData":
		nefBytes, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		manifestBytes, err := arg(args, 1).TryBytes()
		if err != nil {
			return nil, err
		}
		var data []byte
		if len(args) > 2 {
			data, _ = arg(args, 2).TryBytes()
		}
		c, err := m.deployContract(ic, nefBytes, manifestBytes, data)
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(c.Hash[:]), nil
	case "update":
		return m.update(ic, args)
	case "destroy":
		return m.destroy(ic)
	case "getContract":
		h, err := argUint160(args, 0)
		if err != nil {
			return nil, err
		}
		c, err := m.getContractState(ic, h)
		if err != nil {
			return stackitem.NewNull(), nil
		}
		return stackitem.NewByteString(c.Hash[:]), nil
	case "setMinimumDeploymentFee":
		v, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if err := putItem(ic, m.md.ID, mgmtPrefixMinDeployFee, nil, bigint.ToBytes(v)); err != nil {
			return nil, err
		}
		return stackitem.NewBool(true), nil
	default:
		return nil, errUnknownMethod
	}
}

func (m *ContractManagement) update(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	callerHash := ic.VM.CurrentContext().ContractHash
	c, err := m.getContractState(ic, callerHash)
	if err != nil {
		return nil, errContractNotFound
	}
	if nefBytes, err := arg(args, 0).TryBytes(); err == nil && len(nefBytes) > 0 {
		nef := new(smartcontract.NefFile)
		r := io.NewBinReaderFromBuf(nefBytes)
		nef.DecodeBinary(r)
		if r.Err != nil {
			return nil, r.Err
		}
		c.NEF = *nef
	}
	if manifestBytes, err := arg(args, 1).TryBytes(); err == nil && len(manifestBytes) > 0 {
		manifest, err := smartcontract.UnmarshalManifest(manifestBytes)
		if err != nil {
			return nil, err
		}
		c.Manifest = *manifest
	}
	c.UpdateCounter++
	if err := m.putContractState(ic, c); err != nil {
		return nil, err
	}
	ic.AddNotification(m.md.Hash, "Update", stackitem.NewByteString(c.Hash[:]))
	return stackitem.NewNull(), nil
}

func (m *ContractManagement) destroy(ic *interop.Context) (stackitem.Item, error) {
	callerHash := ic.VM.CurrentContext().ContractHash
	c, err := m.getContractState(ic, callerHash)
	if err != nil {
		return nil, errContractNotFound
	}
	if err := ic.DAO.Delete(storage.AppendPrefix(storage.STContract, c.Hash[:])); err != nil {
		return nil, err
	}
	prefix := make([]byte, 4)
	prefix[0], prefix[1], prefix[2], prefix[3] = byte(c.ID), byte(c.ID>>8), byte(c.ID>>16), byte(c.ID>>24)
	var toDelete [][]byte
	ic.DAO.Seek(storage.AppendPrefix(storage.STStorage, prefix), func(k, _ []byte) bool {
		toDelete = append(toDelete, append([]byte{}, k...))
		return true
	})
	for _, k := range toDelete {
		if err := ic.DAO.Delete(k); err != nil {
			return nil, err
		}
	}
	ic.AddNotification(m.md.Hash, "Destroy", stackitem.NewByteString(c.Hash[:]))
	return stackitem.NewNull(), nil
}
