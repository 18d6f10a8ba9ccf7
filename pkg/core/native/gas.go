package native

import (
	"math/big"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// gasDecimals matches the reference client's 8-decimal GAS precision
// (spec §4.E.5).
const gasDecimals = 8

// gasPrefixPerBlock holds the current per-block minting reward, stored
// so it can be governed the same way Policy's parameters are.
const gasPrefixPerBlock byte = 0x29

// defaultGasPerBlock is 5 GAS per block at genesis (mainnet value,
// halved on a governance-defined schedule thereafter; this redesign
// keeps it a flat, settable parameter rather than hard-coding the decay
// schedule, matching spec §4.E.5's "minted per-block" wording without
// inventing undocumented halving heights).
const defaultGasPerBlock = 5 * 1_00000000

// GasToken is the NEP-17 utility asset spent on system/network fees and
// minted to the block proposer and committee (spec §4.E.5).
type GasToken struct {
	md *interop.ContractMD
}

// NewGasToken constructs the GasToken native.
func NewGasToken() *GasToken {
	g := &GasToken{}
	g.md = &interop.ContractMD{
		ID:   IDGasToken,
		Hash: nativeHash("GasToken"),
		Name: "GasToken",
		Methods: []interop.MethodDescriptor{
			{Name: "symbol", RequiredFlags: callflag.None, Safe: true},
			{Name: "decimals", RequiredFlags: callflag.None, Safe: true},
			{Name: "totalSupply", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "balanceOf", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "transfer", ParamCount: 4, RequiredFlags: callflag.All},
		},
	}
	return g
}

// Metadata implements interop.Contract.
func (g *GasToken) Metadata() *interop.ContractMD { return g.md }

// OnPersist mints the genesis GAS distribution to the standby consensus
// address at block 0 (spec §4.E.5 "initial_gas_distribution minted to
// genesis consensus address").
func (g *GasToken) OnPersist(ic *interop.Context) error {
	if ic.Block == nil || ic.Block.Header.Index != 0 {
		return nil
	}
	return g.mint(ic, ic.Block.Header.NextConsensus, big.NewInt(defaultGasPerBlock*2_000_000))
}

// PostPersist is a no-op: the per-block reward is minted by NeoToken's
// PostPersist, which calls back into GasToken.mint (spec §4.E.4
// "PostPersist distributes the per-block GAS reward").
func (g *GasToken) PostPersist(*interop.Context) error { return nil }

// PerBlockReward returns the amount minted to the proposer/committee
// once per block.
func (g *GasToken) PerBlockReward(ic *interop.Context) *big.Int {
	v, ok := getItem(ic, g.md.ID, gasPrefixPerBlock, nil)
	if !ok {
		return big.NewInt(defaultGasPerBlock)
	}
	return new(big.Int).SetBytes(v)
}

func (g *GasToken) mint(ic *interop.Context, account util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal := getBalance(ic, g.md.ID, account)
	if err := putBalance(ic, g.md.ID, account, new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	supply := getTotalSupply(ic, g.md.ID)
	if err := putTotalSupply(ic, g.md.ID, new(big.Int).Add(supply, amount)); err != nil {
		return err
	}
	ic.AddNotification(g.md.Hash, "Transfer", stackitem.NewArray([]stackitem.Item{
		stackitem.NewNull(), stackitem.NewByteString(account[:]), mustInt(amount),
	}))
	return nil
}

// Burn deducts amount from account, called by the block processor to pay
// a transaction's system_fee + network_fee (spec §4.E.5 "Burned to pay
// transaction system_fee + network_fee at block application time").
func (g *GasToken) Burn(ic *interop.Context, account util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal := getBalance(ic, g.md.ID, account)
	if bal.Cmp(amount) < 0 {
		return errInsufficientFunds
	}
	if err := putBalance(ic, g.md.ID, account, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	supply := getTotalSupply(ic, g.md.ID)
	if err := putTotalSupply(ic, g.md.ID, new(big.Int).Sub(supply, amount)); err != nil {
		return err
	}
	ic.AddNotification(g.md.Hash, "Transfer", stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteString(account[:]), stackitem.NewNull(), mustInt(amount),
	}))
	return nil
}

// Balance exposes a GAS balance read for mempool admission and fee
// verification (spec §4.G item 10).
func (g *GasToken) Balance(ic *interop.Context, account util.Uint160) *big.Int {
	return getBalance(ic, g.md.ID, account)
}

// Invoke implements interop.Contract.
func (g *GasToken) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "symbol":
		return stackitem.NewByteString([]byte("GAS")), nil
	case "decimals":
		return stackitem.NewInteger(gasDecimals), nil
	case "totalSupply":
		return mustInt(getTotalSupply(ic, g.md.ID)), nil
	case "balanceOf":
		acc, err := argUint160(args, 0)
		if err != nil {
			return nil, err
		}
		return mustInt(g.Balance(ic, acc)), nil
	case "transfer":
		return g.transfer(ic, args)
	default:
		return nil, errUnknownMethod
	}
}

func (g *GasToken) transfer(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	from, err := argUint160(args, 0)
	if err != nil {
		return nil, err
	}
	to, err := argUint160(args, 1)
	if err != nil {
		return nil, err
	}
	amount, err := argInt(args, 2)
	if err != nil {
		return nil, err
	}
	if amount.Sign() < 0 {
		return nil, errInsufficientFunds
	}
	if !requireWitness(ic, from) {
		return stackitem.NewBool(false), nil
	}
	bal := getBalance(ic, g.md.ID, from)
	if bal.Cmp(amount) < 0 {
		return stackitem.NewBool(false), nil
	}
	if amount.Sign() > 0 {
		if err := putBalance(ic, g.md.ID, from, new(big.Int).Sub(bal, amount)); err != nil {
			return nil, err
		}
		toBal := getBalance(ic, g.md.ID, to)
		if err := putBalance(ic, g.md.ID, to, new(big.Int).Add(toBal, amount)); err != nil {
			return nil, err
		}
	}
	ic.AddNotification(g.md.Hash, "Transfer", stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteString(from[:]), stackitem.NewByteString(to[:]), mustInt(amount),
	}))
	return stackitem.NewBool(true), nil
}
