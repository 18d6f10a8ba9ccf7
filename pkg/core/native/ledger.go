package native

import (
	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// Ledger is a read-only façade over historical blocks and transactions,
// backed by ic.Chain (spec §4.E.2).
type Ledger struct {
	md *interop.ContractMD
}

// NewLedger constructs the Ledger native contract.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.md = &interop.ContractMD{
		ID:   IDLedgerContract,
		Hash: nativeHash("LedgerContract"),
		Name: "LedgerContract",
		Methods: []interop.MethodDescriptor{
			{Name: "currentIndex", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "currentHash", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getBlock", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getTransaction", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getTransactionHeight", ParamCount: 1, RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "getTransactionFromBlock", ParamCount: 2, RequiredFlags: callflag.ReadStates, Safe: true},
		},
	}
	return l
}

// Metadata implements interop.Contract.
func (l *Ledger) Metadata() *interop.ContractMD { return l.md }

// OnPersist is a no-op: block/transaction persistence is handled by the
// block processor before natives run (spec §4.I step 3 precedes step 4).
func (l *Ledger) OnPersist(*interop.Context) error { return nil }

// PostPersist is a no-op for Ledger.
func (l *Ledger) PostPersist(*interop.Context) error { return nil }

// Invoke implements interop.Contract.
func (l *Ledger) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "currentIndex":
		return stackitem.NewInteger(int64(ic.Chain.BlockHeight())), nil
	case "currentHash":
		return stackitem.NewByteString(ic.Chain.CurrentBlockHash().BytesBE()), nil
	case "getBlock":
		return l.getBlock(ic, args)
	case "getTransaction":
		tx, _, err := l.lookupTx(ic, args)
		if err != nil {
			return stackitem.NewNull(), nil
		}
		return txToStackItem(tx), nil
	case "getTransactionHeight":
		_, height, err := l.lookupTx(ic, args)
		if err != nil {
			return stackitem.NewInteger(-1), nil
		}
		return stackitem.NewInteger(int64(height)), nil
	case "getTransactionFromBlock":
		return l.getTransactionFromBlock(ic, args)
	default:
		return nil, errUnknownMethod
	}
}

func (l *Ledger) resolveBlock(ic *interop.Context, args []stackitem.Item) (*block.Block, error) {
	item := arg(args, 0)
	if iv, err := item.TryInteger(); err == nil {
		h := ic.Chain.GetHeaderHash(uint32(iv.Int64()))
		return ic.Chain.GetBlock(h)
	}
	b, err := item.TryBytes()
	if err != nil {
		return nil, err
	}
	var h util.Uint256
	copy(h[:], b)
	return ic.Chain.GetBlock(h)
}

func (l *Ledger) getBlock(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	b, err := l.resolveBlock(ic, args)
	if err != nil {
		return stackitem.NewNull(), nil
	}
	return blockToStackItem(b), nil
}

func (l *Ledger) lookupTx(ic *interop.Context, args []stackitem.Item) (interface {
	Hash() util.Uint256
}, uint32, error) {
	b, err := arg(args, 0).TryBytes()
	if err != nil {
		return nil, 0, err
	}
	var h util.Uint256
	copy(h[:], b)
	tx, height, err := ic.Chain.GetTransaction(h)
	if err != nil {
		return nil, 0, err
	}
	return tx, height, nil
}

func (l *Ledger) getTransactionFromBlock(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	b, err := l.resolveBlock(ic, args)
	if err != nil {
		return stackitem.NewNull(), nil
	}
	idx, err := argInt(args, 1)
	if err != nil {
		return nil, err
	}
	i := int(idx.Int64())
	if i < 0 || i >= len(b.Transactions) {
		return stackitem.NewNull(), nil
	}
	return txToStackItem(b.Transactions[i]), nil
}

// blockToStackItem renders a block header (without transactions) as the
// Struct layout RPC/contract consumers expect (spec §4.L getblockheader).
func blockToStackItem(b *block.Block) stackitem.Item {
	h := b.Header
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteString(h.Hash().BytesBE()),
		stackitem.NewInteger(int64(h.Version)),
		stackitem.NewByteString(h.PrevHash.BytesBE()),
		stackitem.NewByteString(h.MerkleRoot.BytesBE()),
		stackitem.NewInteger(int64(h.Timestamp)),
		stackitem.NewInteger(int64(h.Index)),
		stackitem.NewInteger(int64(h.PrimaryIndex)),
		stackitem.NewByteString(h.NextConsensus.BytesBE()),
		stackitem.NewInteger(int64(len(b.Transactions))),
	})
}

func txToStackItem(tx interface{ Hash() util.Uint256 }) stackitem.Item {
	return stackitem.NewByteString(tx.Hash().BytesBE())
}
