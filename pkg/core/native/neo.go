package native

import (
	"math/big"
	"sort"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

const (
	neoTotalSupply       = 100_000_000
	neoDecimals          = 0
	defaultCommitteeSize = 21
	defaultValidators    = 7
	neoPrefixCandidate   byte = 0x21
	neoPrefixVoterTo     byte = 0x22
	neoPrefixCommittee   byte = 0x0e
	neoPrefixGasPerBlock byte = 0x29
)

type candidate struct {
	pub   *keys.PublicKey
	votes *big.Int
}

// NeoToken is the NEP-17 governance asset: non-divisible, its transfers
// weighted-vote candidates and its holders accrue GAS (spec §4.E.4).
type NeoToken struct {
	md  *interop.ContractMD
	gas *GasToken
}

// NewNeoToken constructs the NeoToken native. SetGasToken must be called
// before first use to resolve the circular NEO/GAS dependency.
func NewNeoToken() *NeoToken {
	n := &NeoToken{}
	n.md = &interop.ContractMD{
		ID:   IDNeoToken,
		Hash: nativeHash("NeoToken"),
		Name: "NeoToken",
		Methods: []interop.MethodDescriptor{
			{Name: "symbol", RequiredFlags: callflag.None, Safe: true},
			{Name: "decimals", RequiredFlags: callflag.None, Safe: true},
			{Name: "totalSupply", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "balanceOf", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "transfer", ParamCount: 4, RequiredFlags: callflag.All},
			{Name: "vote", ParamCount: 2, RequiredFlags: callflag.All},
			{Name: "registerCandidate", ParamCount: 1, RequiredFlags: callflag.All},
			{Name: "unregisterCandidate", ParamCount: 1, RequiredFlags: callflag.All},
			{Name: "getCandidates", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getCommittee", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getNextBlockValidators", RequiredFlags: callflag.ReadStates, Safe: true},
		},
	}
	return n
}

// SetGasToken resolves NeoToken's handle onto GasToken for per-block
// distribution (spec §4.E.5 "distributed to committee proportionally").
func (n *NeoToken) SetGasToken(g *GasToken) { n.gas = g }

// Metadata implements interop.Contract.
func (n *NeoToken) Metadata() *interop.ContractMD { return n.md }

// OnPersist mints the total supply to the genesis consensus account at
// block 0 (spec §4.E.4). It seeds no committee: the committee is empty
// until candidates register.
func (n *NeoToken) OnPersist(ic *interop.Context) error {
	if ic.Block == nil || ic.Block.Header.Index != 0 {
		return nil
	}
	genesis := ic.Block.Header.NextConsensus
	if err := putBalance(ic, n.md.ID, genesis, big.NewInt(neoTotalSupply)); err != nil {
		return err
	}
	return putTotalSupply(ic, n.md.ID, big.NewInt(neoTotalSupply))
}

// PostPersist mints the per-block GAS reward to the committee member at
// PrimaryIndex modulo the committee size. There is no periodic committee
// refresh: getCommitteeList derives the committee from the current
// candidate votes on every call.
func (n *NeoToken) PostPersist(ic *interop.Context) error {
	if n.gas != nil && ic.Block != nil {
		idx := int(ic.Block.Header.PrimaryIndex)
		committee := n.getCommitteeList(ic, defaultCommitteeSize)
		if len(committee) > 0 {
			reward := n.gas.PerBlockReward(ic)
			beneficiary := committee[idx%len(committee)].pub.ScriptHash()
			if err := n.gas.mint(ic, beneficiary, reward); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *NeoToken) getCandidateList(ic *interop.Context) []candidate {
	var out []candidate
	ic.DAO.Seek(storeKey(n.md.ID, neoPrefixCandidate, nil), func(k, v []byte) bool {
		pk, err := keys.NewPublicKeyFromBytes(k[len(k)-33:])
		if err != nil {
			return true
		}
		out = append(out, candidate{pub: pk, votes: bigint.FromBytes(v)})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].votes.Cmp(out[j].votes) != 0 {
			return out[i].votes.Cmp(out[j].votes) > 0
		}
		return out[i].pub.Cmp(out[j].pub) < 0
	})
	return out
}

func (n *NeoToken) getCommitteeList(ic *interop.Context, size int) []candidate {
	all := n.getCandidateList(ic)
	if len(all) > size {
		all = all[:size]
	}
	return all
}

// CommitteeAddress derives the committee multi-signature script hash
// Policy's governance setters require a witness from (spec §4.E.1).
func (n *NeoToken) CommitteeAddress(ic *interop.Context) util.Uint160 {
	committee := n.getCommitteeList(ic, defaultCommitteeSize)
	m := len(committee)*2/3 + 1
	pubs := make([][]byte, len(committee))
	for i, c := range committee {
		pubs[i] = c.pub.Bytes()
	}
	script, err := scriptOrEmpty(m, pubs)
	if err != nil {
		return util.Uint160{}
	}
	return hash160(script)
}

// GetCommittee returns the current committee's public keys, ordered by
// descending vote (spec §4.E.4 "getCommittee"), for RPC's getcommittee.
func (n *NeoToken) GetCommittee(ic *interop.Context) []*keys.PublicKey {
	cs := n.getCommitteeList(ic, defaultCommitteeSize)
	out := make([]*keys.PublicKey, len(cs))
	for i, c := range cs {
		out[i] = c.pub
	}
	return out
}

// GetNextBlockValidators returns the top validators-count committee
// members by vote, for RPC's getnextblockvalidators.
func (n *NeoToken) GetNextBlockValidators(ic *interop.Context) []*keys.PublicKey {
	cs := n.getCommitteeList(ic, defaultValidators)
	out := make([]*keys.PublicKey, len(cs))
	for i, c := range cs {
		out[i] = c.pub
	}
	return out
}

// UnclaimedGas estimates the GAS an account would claim if its balance
// changed right now, as balance · endHeight · the current per-block
// reward. No last-claim height is tracked, so the count always starts at
// block 0, and the reward is not divided among holders.
func (n *NeoToken) UnclaimedGas(ic *interop.Context, account util.Uint160, endHeight uint32) *big.Int {
	bal := getBalance(ic, n.md.ID, account)
	if bal.Sign() == 0 || n.gas == nil {
		return big.NewInt(0)
	}
	heldBlocks := big.NewInt(int64(endHeight))
	reward := n.gas.PerBlockReward(ic)
	return new(big.Int).Mul(new(big.Int).Mul(bal, heldBlocks), reward)
}

// Invoke implements interop.Contract.
func (n *NeoToken) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "symbol":
		return stackitem.NewByteString([]byte("NEO")), nil
	case "decimals":
		return stackitem.NewInteger(neoDecimals), nil
	case "totalSupply":
		return mustInt(getTotalSupply(ic, n.md.ID)), nil
	case "balanceOf":
		acc, err := argUint160(args, 0)
		if err != nil {
			return nil, err
		}
		return mustInt(getBalance(ic, n.md.ID, acc)), nil
	case "transfer":
		return n.transfer(ic, args)
	case "vote":
		return n.vote(ic, args)
	case "registerCandidate":
		return n.registerCandidate(ic, args)
	case "unregisterCandidate":
		return n.unregisterCandidate(ic, args)
	case "getCommittee":
		return candidatesToArray(n.getCommitteeList(ic, defaultCommitteeSize)), nil
	case "getCandidates":
		return candidatesToArray(n.getCandidateList(ic)), nil
	case "getNextBlockValidators":
		return candidatesToArray(n.getCommitteeList(ic, defaultValidators)), nil
	default:
		return nil, errUnknownMethod
	}
}

func candidatesToArray(cs []candidate) stackitem.Item {
	items := make([]stackitem.Item, len(cs))
	for i, c := range cs {
		items[i] = stackitem.NewByteString(c.pub.Bytes())
	}
	return stackitem.NewArray(items)
}

func mustInt(v *big.Int) stackitem.Item {
	item, err := stackitem.NewBigInteger(v)
	if err != nil {
		return stackitem.NewInteger(0)
	}
	return item
}

// transfer implements NEP-17 transfer with NEO's non-divisible
// constraint: amount must be the whole balance move in integral units
// (spec §4.E.4, glossary "NEP-17").
func (n *NeoToken) transfer(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
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
	bal := getBalance(ic, n.md.ID, from)
	if bal.Cmp(amount) < 0 {
		return stackitem.NewBool(false), nil
	}
	if amount.Sign() > 0 {
		if err := putBalance(ic, n.md.ID, from, new(big.Int).Sub(bal, amount)); err != nil {
			return nil, err
		}
		toBal := getBalance(ic, n.md.ID, to)
		if err := putBalance(ic, n.md.ID, to, new(big.Int).Add(toBal, amount)); err != nil {
			return nil, err
		}
	}
	ic.AddNotification(n.md.Hash, "Transfer", stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteString(from[:]), stackitem.NewByteString(to[:]), mustInt(amount),
	}))
	return stackitem.NewBool(true), nil
}

func (n *NeoToken) vote(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	account, err := argUint160(args, 0)
	if err != nil {
		return nil, err
	}
	if !requireWitness(ic, account) {
		return stackitem.NewBool(false), nil
	}
	bal := getBalance(ic, n.md.ID, account)
	if prev, ok := getItem(ic, n.md.ID, neoPrefixVoterTo, account[:]); ok {
		prevVotes := getItem0(ic, n.md.ID, neoPrefixCandidate, prev)
		if err := putItem(ic, n.md.ID, neoPrefixCandidate, prev, bigint.ToBytes(new(big.Int).Sub(prevVotes, bal))); err != nil {
			return nil, err
		}
	}
	candidateItem := arg(args, 1)
	if _, ok := candidateItem.(stackitem.Null); ok {
		if err := deleteItem(ic, n.md.ID, neoPrefixVoterTo, account[:]); err != nil {
			return nil, err
		}
		return stackitem.NewBool(true), nil
	}
	pubBytes, err := candidateItem.TryBytes()
	if err != nil {
		return nil, err
	}
	votes := getItem0(ic, n.md.ID, neoPrefixCandidate, pubBytes)
	if err := putItem(ic, n.md.ID, neoPrefixCandidate, pubBytes, bigint.ToBytes(new(big.Int).Add(votes, bal))); err != nil {
		return nil, err
	}
	if err := putItem(ic, n.md.ID, neoPrefixVoterTo, account[:], pubBytes); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}

func getItem0(ic *interop.Context, id int32, prefix byte, sub []byte) *big.Int {
	v, ok := getItem(ic, id, prefix, sub)
	if !ok {
		return big.NewInt(0)
	}
	return bigint.FromBytes(v)
}

func (n *NeoToken) registerCandidate(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	pubBytes, err := arg(args, 0).TryBytes()
	if err != nil {
		return nil, err
	}
	pk, err := keys.NewPublicKeyFromBytes(pubBytes)
	if err != nil {
		return nil, err
	}
	if !requireWitness(ic, pk.ScriptHash()) {
		return stackitem.NewBool(false), nil
	}
	if _, ok := getItem(ic, n.md.ID, neoPrefixCandidate, pubBytes); !ok {
		if err := putItem(ic, n.md.ID, neoPrefixCandidate, pubBytes, bigint.ToBytes(big.NewInt(0))); err != nil {
			return nil, err
		}
	}
	return stackitem.NewBool(true), nil
}

func (n *NeoToken) unregisterCandidate(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	pubBytes, err := arg(args, 0).TryBytes()
	if err != nil {
		return nil, err
	}
	pk, err := keys.NewPublicKeyFromBytes(pubBytes)
	if err != nil {
		return nil, err
	}
	if !requireWitness(ic, pk.ScriptHash()) {
		return stackitem.NewBool(false), nil
	}
	if err := deleteItem(ic, n.md.ID, neoPrefixCandidate, pubBytes); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}
