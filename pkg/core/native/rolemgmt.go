package native

import (
	"encoding/binary"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// Role tags the kind of off-chain duty a designated node set performs
// (spec §4.E.7).
type Role byte

// Roles.
const (
	RoleStateValidator   Role = 4
	RoleOracle           Role = 8
	RoleNeoFSAlphabet    Role = 16
	RoleP2PNotary        Role = 32
)

// RoleManagement stores, per role, the most recently designated
// ordered list of ECPoints effective at or before a given block index
// (spec §4.E.7). Designation is committee-gated the same way Policy's
// setters are.
type RoleManagement struct {
	md  *interop.ContractMD
	neo *NeoToken
}

// NewRoleManagement constructs the RoleManagement native, wired to neo
// for committee witness checks on designateAsRole.
func NewRoleManagement(neo *NeoToken) *RoleManagement {
	r := &RoleManagement{neo: neo}
	r.md = &interop.ContractMD{
		ID:   IDRoleManagement,
		Hash: nativeHash("RoleManagement"),
		Name: "RoleManagement",
		Methods: []interop.MethodDescriptor{
			{Name: "getDesignatedByRole", ParamCount: 2, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "designateAsRole", ParamCount: 2, RequiredFlags: callflag.All},
		},
	}
	return r
}

// Metadata implements interop.Contract.
func (r *RoleManagement) Metadata() *interop.ContractMD { return r.md }

// OnPersist is a no-op for RoleManagement.
func (r *RoleManagement) OnPersist(*interop.Context) error { return nil }

// PostPersist is a no-op for RoleManagement.
func (r *RoleManagement) PostPersist(*interop.Context) error { return nil }

func roleSubKey(role Role, index uint32) []byte {
	b := make([]byte, 5)
	b[0] = byte(role)
	binary.BigEndian.PutUint32(b[1:], index)
	return b
}

// designate persists pubs as the role's validator set effective starting
// at ic's current block index, keyed so a prefix scan yields entries in
// ascending index order per role (spec §4.E.7 "ordered list of ECPoint
// per (role, block_index) pair").
func (r *RoleManagement) designate(ic *interop.Context, role Role, pubs []*keys.PublicKey) error {
	buf := make([]byte, 0, len(pubs)*33)
	for _, pk := range pubs {
		buf = append(buf, pk.Bytes()...)
	}
	return putItem(ic, r.md.ID, roleDesignatePrefix, roleSubKey(role, ic.BlockHeight()+1), buf)
}

const roleDesignatePrefix byte = 0x08

// GetDesignatedByRole returns the role's validator set effective at or
// before index, the most-recent-at-or-before lookup spec §4.E.7
// requires, used by Oracle/Notary/StateValidator consumers.
func (r *RoleManagement) GetDesignatedByRole(ic *interop.Context, role Role, index uint32) []*keys.PublicKey {
	var best []*keys.PublicKey
	var bestIndex uint32
	found := false
	prefix := []byte{byte(role)}
	ic.DAO.Seek(storeKey(r.md.ID, roleDesignatePrefix, prefix), func(k, v []byte) bool {
		if len(k) < 4 {
			return true
		}
		idx := binary.BigEndian.Uint32(k[len(k)-4:])
		if idx > index {
			return true
		}
		if !found || idx >= bestIndex {
			found = true
			bestIndex = idx
			best = decodePubKeys(v)
		}
		return true
	})
	return best
}

func decodePubKeys(buf []byte) []*keys.PublicKey {
	var out []*keys.PublicKey
	for i := 0; i+33 <= len(buf); i += 33 {
		pk, err := keys.NewPublicKeyFromBytes(buf[i : i+33])
		if err != nil {
			continue
		}
		out = append(out, pk)
	}
	return out
}

// Invoke implements interop.Contract.
func (r *RoleManagement) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "getDesignatedByRole":
		roleInt, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		idxInt, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		pubs := r.GetDesignatedByRole(ic, Role(roleInt.Int64()), uint32(idxInt.Int64()))
		items := make([]stackitem.Item, len(pubs))
		for i, pk := range pubs {
			items[i] = stackitem.NewByteString(pk.Bytes())
		}
		return stackitem.NewArray(items), nil
	case "designateAsRole":
		if r.neo == nil || !requireWitness(ic, r.neo.CommitteeAddress(ic)) {
			return nil, errUnauthorized
		}
		roleInt, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		arr, ok := arg(args, 1).(*stackitem.Array)
		if !ok {
			return nil, errUnknownMethod
		}
		pubs := make([]*keys.PublicKey, 0, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			b, err := arr.Get(i).TryBytes()
			if err != nil {
				return nil, err
			}
			pk, err := keys.NewPublicKeyFromBytes(b)
			if err != nil {
				return nil, err
			}
			pubs = append(pubs, pk)
		}
		if err := r.designate(ic, Role(roleInt.Int64()), pubs); err != nil {
			return nil, err
		}
		ic.AddNotification(r.md.Hash, "Designation", stackitem.NewArray([]stackitem.Item{
			stackitem.NewInteger(roleInt.Int64()),
		}))
		return stackitem.NewNull(), nil
	default:
		return nil, errUnknownMethod
	}
}
