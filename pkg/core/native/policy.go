package native

import (
	"math/big"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// defaults, per spec §4.E.1 and mainnet genesis policy values.
const (
	defaultFeePerByte            = 1000
	defaultExecFeeFactor         = 30
	defaultStoragePrice          = 100000
	defaultMaxBlockSize          = 1024 * 1024 * 2
	defaultMaxTxPerBlock  uint32 = 512
)

const (
	policyPrefixFeePerByte    byte = 0x0a
	policyPrefixExecFeeFactor byte = 0x12
	policyPrefixStoragePrice  byte = 0x13
	policyPrefixMaxBlockSize  byte = 0x0c
	policyPrefixMaxTxPerBlock byte = 0x17
	policyPrefixBlockedAccount byte = 0x0f
)

// Policy governs network fee parameters and the blocked-account list
// (spec §4.E.1). Setters are gated on the committee multi-signature
// witness (checked via the committee account derived by NeoToken).
type Policy struct {
	md   *interop.ContractMD
	neo  *NeoToken
}

// NewPolicy constructs the Policy native, wired to neo for committee
// witness checks on its governance setters.
func NewPolicy(neo *NeoToken) *Policy {
	p := &Policy{neo: neo}
	p.md = &interop.ContractMD{
		ID:   IDPolicyContract,
		Hash: nativeHash("PolicyContract"),
		Name: "PolicyContract",
		Methods: []interop.MethodDescriptor{
			{Name: "getFeePerByte", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getExecFeeFactor", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getStoragePrice", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getMaxBlockSize", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getMaxTransactionsPerBlock", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "isBlocked", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "setFeePerByte", ParamCount: 1, RequiredFlags: callflag.WriteStates},
			{Name: "setExecFeeFactor", ParamCount: 1, RequiredFlags: callflag.WriteStates},
			{Name: "setStoragePrice", ParamCount: 1, RequiredFlags: callflag.WriteStates},
			{Name: "blockAccount", ParamCount: 1, RequiredFlags: callflag.WriteStates},
			{Name: "unblockAccount", ParamCount: 1, RequiredFlags: callflag.WriteStates},
		},
	}
	return p
}

// Metadata implements interop.Contract.
func (p *Policy) Metadata() *interop.ContractMD { return p.md }

// OnPersist seeds default parameters at genesis; afterwards it is a
// no-op, matching the common native hook contract (spec §4.E.9).
func (p *Policy) OnPersist(ic *interop.Context) error {
	if ic.Block == nil || ic.Block.Header.Index != 0 {
		return nil
	}
	if err := putItem(ic, p.md.ID, policyPrefixFeePerByte, nil, bigint.ToBytes(big.NewInt(defaultFeePerByte))); err != nil {
		return err
	}
	if err := putItem(ic, p.md.ID, policyPrefixExecFeeFactor, nil, bigint.ToBytes(big.NewInt(defaultExecFeeFactor))); err != nil {
		return err
	}
	if err := putItem(ic, p.md.ID, policyPrefixStoragePrice, nil, bigint.ToBytes(big.NewInt(defaultStoragePrice))); err != nil {
		return err
	}
	if err := putItem(ic, p.md.ID, policyPrefixMaxBlockSize, nil, bigint.ToBytes(big.NewInt(defaultMaxBlockSize))); err != nil {
		return err
	}
	return putItem(ic, p.md.ID, policyPrefixMaxTxPerBlock, nil, bigint.ToBytes(big.NewInt(int64(defaultMaxTxPerBlock))))
}

// PostPersist is a no-op for Policy.
func (p *Policy) PostPersist(*interop.Context) error { return nil }

// FeePerByte returns the current network fee rate, used by mempool and
// transaction-fee validation (spec §4.G "verify_transaction").
func (p *Policy) FeePerByte(ic *interop.Context) int64 {
	return p.getInt(ic, policyPrefixFeePerByte, defaultFeePerByte)
}

// ExecFeeFactor returns the opcode price multiplier.
func (p *Policy) ExecFeeFactor(ic *interop.Context) int64 {
	return p.getInt(ic, policyPrefixExecFeeFactor, defaultExecFeeFactor)
}

// IsBlocked reports whether account is on the blocked list.
func (p *Policy) IsBlocked(ic *interop.Context, account util.Uint160) bool {
	_, ok := getItem(ic, p.md.ID, policyPrefixBlockedAccount, account[:])
	return ok
}

func (p *Policy) getInt(ic *interop.Context, prefix byte, def int64) int64 {
	v, ok := getItem(ic, p.md.ID, prefix, nil)
	if !ok {
		return def
	}
	return bigint.FromBytes(v).Int64()
}

func (p *Policy) requireCommittee(ic *interop.Context) error {
	if p.neo == nil {
		return errUnauthorized
	}
	committeeAccount := p.neo.CommitteeAddress(ic)
	if !requireWitness(ic, committeeAccount) {
		return errUnauthorized
	}
	return nil
}

// Invoke implements interop.Contract.
func (p *Policy) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "getFeePerByte":
		return stackitem.NewInteger(p.FeePerByte(ic)), nil
	case "getExecFeeFactor":
		return stackitem.NewInteger(p.ExecFeeFactor(ic)), nil
	case "getStoragePrice":
		return stackitem.NewInteger(p.getInt(ic, policyPrefixStoragePrice, defaultStoragePrice)), nil
	case "getMaxBlockSize":
		return stackitem.NewInteger(p.getInt(ic, policyPrefixMaxBlockSize, defaultMaxBlockSize)), nil
	case "getMaxTransactionsPerBlock":
		return stackitem.NewInteger(p.getInt(ic, policyPrefixMaxTxPerBlock, int64(defaultMaxTxPerBlock))), nil
	case "isBlocked":
		acc, err := argUint160(args, 0)
		if err != nil {
			return nil, err
		}
		return stackitem.NewBool(p.IsBlocked(ic, acc)), nil
	case "setFeePerByte":
		return p.setInt(ic, args, policyPrefixFeePerByte)
	case "setExecFeeFactor":
		return p.setInt(ic, args, policyPrefixExecFeeFactor)
	case "setStoragePrice":
		return p.setInt(ic, args, policyPrefixStoragePrice)
	case "blockAccount":
		return p.setBlocked(ic, args, true)
	case "unblockAccount":
		return p.setBlocked(ic, args, false)
	default:
		return nil, errUnknownMethod
	}
}

func (p *Policy) setInt(ic *interop.Context, args []stackitem.Item, prefix byte) (stackitem.Item, error) {
	if err := p.requireCommittee(ic); err != nil {
		return nil, err
	}
	v, err := argInt(args, 0)
	if err != nil {
		return nil, err
	}
	if err := putItem(ic, p.md.ID, prefix, nil, bigint.ToBytes(v)); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}

func (p *Policy) setBlocked(ic *interop.Context, args []stackitem.Item, blocked bool) (stackitem.Item, error) {
	if err := p.requireCommittee(ic); err != nil {
		return nil, err
	}
	acc, err := argUint160(args, 0)
	if err != nil {
		return nil, err
	}
	if blocked {
		if err := putItem(ic, p.md.ID, policyPrefixBlockedAccount, acc[:], []byte{1}); err != nil {
			return nil, err
		}
	} else if err := deleteItem(ic, p.md.ID, policyPrefixBlockedAccount, acc[:]); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}
