// Package result defines the JSON shape of every RPC method's return
// value (spec §4.L). Each type here is a pure wire DTO: it converts
// to/from the ledger's internal types but never is one, because those
// carry no JSON tags (the reference node keeps the same separation
// between pkg/core and pkg/rpc/response/result).
package result

import (
	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/util"
)

// Signer is the JSON form of a transaction.Signer.
type Signer struct {
	Account          util.Uint160 `json:"account"`
	Scopes           string       `json:"scopes"`
	AllowedContracts []util.Uint160 `json:"allowedcontracts,omitempty"`
	AllowedGroups    []string     `json:"allowedgroups,omitempty"`
}

// NewSigner converts a ledger Signer to its JSON form.
func NewSigner(s transaction.Signer) Signer {
	out := Signer{Account: s.Account, Scopes: s.Scopes.String()}
	if len(s.AllowedContracts) > 0 {
		out.AllowedContracts = append([]util.Uint160(nil), s.AllowedContracts...)
	}
	for _, g := range s.AllowedGroups {
		out.AllowedGroups = append(out.AllowedGroups, hexString(g))
	}
	return out
}

// Witness is the JSON form of a transaction.Witness, base64-encoded as
// invokefunction's own signer witnesses are.
type Witness struct {
	Invocation   string `json:"invocation"`
	Verification string `json:"verification"`
}

// NewWitness converts a ledger Witness to its JSON form.
func NewWitness(w transaction.Witness) Witness {
	return Witness{
		Invocation:   base64String(w.InvocationScript),
		Verification: base64String(w.VerificationScript),
	}
}

// Transaction is the JSON form of a transaction.Transaction, as
// returned standalone by getrawtransaction and nested inside Block.
type Transaction struct {
	Hash            util.Uint256 `json:"hash"`
	Size            int          `json:"size"`
	Version         byte         `json:"version"`
	Nonce           uint32       `json:"nonce"`
	Sender          string       `json:"sender"`
	SysFee          string       `json:"sysfee"`
	NetFee          string       `json:"netfee"`
	ValidUntilBlock uint32       `json:"validuntilblock"`
	Signers         []Signer     `json:"signers"`
	Attributes      []Attribute  `json:"attributes"`
	Script          string       `json:"script"`
	Witnesses       []Witness    `json:"witnesses"`

	// BlockHash/Confirmations/BlockTime are populated only when the
	// transaction is looked up by hash and is already on-chain
	// (getrawtransaction verbose=true).
	BlockHash     *util.Uint256 `json:"blockhash,omitempty"`
	Confirmations uint32        `json:"confirmations,omitempty"`
	BlockTime     uint64        `json:"blocktime,omitempty"`
}

// Attribute is the JSON form of a transaction.Attribute.
type Attribute struct {
	Type string `json:"type"`
}

// NewTransaction converts a ledger Transaction to its JSON form; addr
// renders Sender/account fields using the network's address version.
func NewTransaction(tx *transaction.Transaction, addressVersion byte) Transaction {
	out := Transaction{
		Hash:            tx.Hash(),
		Size:            tx.Size(),
		Version:         tx.Version,
		Nonce:           tx.Nonce,
		Sender:          addressString(tx.Sender(), addressVersion),
		SysFee:          fixed8String(tx.SystemFee),
		NetFee:          fixed8String(tx.NetworkFee),
		ValidUntilBlock: tx.ValidUntilBlock,
		Script:          base64String(tx.Script),
	}
	for _, s := range tx.Signers {
		out.Signers = append(out.Signers, NewSigner(s))
	}
	for _, a := range tx.Attributes {
		out.Attributes = append(out.Attributes, Attribute{Type: attributeTypeName(a.Type)})
	}
	for _, w := range tx.Witnesses {
		out.Witnesses = append(out.Witnesses, NewWitness(w))
	}
	return out
}

func attributeTypeName(t transaction.AttrType) string {
	switch t {
	case transaction.HighPriorityT:
		return "HighPriority"
	case transaction.OracleResponseT:
		return "OracleResponse"
	case transaction.NotValidBeforeT:
		return "NotValidBefore"
	case transaction.ConflictsT:
		return "Conflicts"
	case transaction.NotaryAssistedT:
		return "NotaryAssisted"
	default:
		return "Unknown"
	}
}

// Header is the JSON form of block.Header.
type Header struct {
	Hash          util.Uint256 `json:"hash"`
	Size          int          `json:"size"`
	Version       uint32       `json:"version"`
	PrevBlockHash util.Uint256 `json:"previousblockhash"`
	MerkleRoot    util.Uint256 `json:"merkleroot"`
	Timestamp     uint64       `json:"time"`
	Nonce         string       `json:"nonce"`
	Index         uint32       `json:"index"`
	PrimaryIndex  byte         `json:"primary"`
	NextConsensus string       `json:"nextconsensus"`
	Witnesses     []Witness    `json:"witnesses"`

	Confirmations uint32        `json:"confirmations,omitempty"`
	NextBlockHash *util.Uint256 `json:"nextblockhash,omitempty"`
}

// NewHeader converts a ledger Header to its JSON form.
func NewHeader(h *block.Header, addressVersion byte) Header {
	return Header{
		Hash:          h.Hash(),
		Version:       h.Version,
		PrevBlockHash: h.PrevHash,
		MerkleRoot:    h.MerkleRoot,
		Timestamp:     h.Timestamp,
		Nonce:         hexUint64(h.Nonce),
		Index:         h.Index,
		PrimaryIndex:  h.PrimaryIndex,
		NextConsensus: addressString(h.NextConsensus, addressVersion),
		Witnesses:     []Witness{NewWitness(h.Witness)},
	}
}

// Block is the JSON form of block.Block: a Header plus its full
// transaction list (getblock verbose=true).
type Block struct {
	Header
	Transactions []Transaction `json:"tx"`
}

// NewBlock converts a ledger Block to its JSON form.
func NewBlock(b *block.Block, addressVersion byte) Block {
	out := Block{Header: NewHeader(&b.Header, addressVersion)}
	for _, tx := range b.Transactions {
		out.Transactions = append(out.Transactions, NewTransaction(tx, addressVersion))
	}
	return out
}
