package block

import (
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// Block is a full header plus its transactions (spec §3.1 "Block").
type Block struct {
	Header       Header
	Transactions []*transaction.Transaction
}

// EncodeBinary implements io.Serializable.
func (b *Block) EncodeBinary(w *io.BinWriter) {
	b.Header.EncodeBinary(w)
	io.WriteArray(w, b.Transactions, func(w *io.BinWriter, t *transaction.Transaction) {
		t.EncodeBinary(w)
	})
}

// DecodeBinary implements io.Serializable.
func (b *Block) DecodeBinary(r *io.BinReader) {
	b.Header.DecodeBinary(r)
	b.Transactions = io.ReadArray(r, func(r *io.BinReader) *transaction.Transaction {
		t := new(transaction.Transaction)
		t.DecodeBinary(r)
		return t
	})
}

// Hash delegates to the header's hash; a block is content-addressed by
// its header alone (spec §3.1).
func (b *Block) Hash() util.Uint256 { return b.Header.Hash() }

// ComputeMerkleRoot returns the Merkle root over b's transaction hashes,
// the zero hash for an empty block (spec §4.A).
func (b *Block) ComputeMerkleRoot() util.Uint256 {
	hashes := make([]util.Uint256, len(b.Transactions))
	for i, t := range b.Transactions {
		hashes[i] = t.Hash()
	}
	return hash.MerkleRoot(hashes)
}

// VerifyMerkleRoot reports whether the header's MerkleRoot matches the
// actual transaction list (spec §4.I step 2, §8 universal invariant).
func (b *Block) VerifyMerkleRoot() bool {
	return b.Header.MerkleRoot.Equals(b.ComputeMerkleRoot())
}

// Trimmed is the persisted form of a block: header plus transaction
// hashes only, transaction bodies living separately under their own
// store key (spec §3.1 "trimmed block persists only the header and hash
// list", storage prefix 0x02).
type Trimmed struct {
	Header Header
	Hashes []util.Uint256
}

// EncodeBinary implements io.Serializable.
func (t *Trimmed) EncodeBinary(w *io.BinWriter) {
	t.Header.EncodeBinary(w)
	io.WriteArray(w, t.Hashes, func(w *io.BinWriter, h util.Uint256) {
		w.WriteBytes(h[:])
	})
}

// DecodeBinary implements io.Serializable.
func (t *Trimmed) DecodeBinary(r *io.BinReader) {
	t.Header.DecodeBinary(r)
	t.Hashes = io.ReadArray(r, func(r *io.BinReader) util.Uint256 {
		var h util.Uint256
		r.ReadBytes(h[:])
		return h
	})
}

// Trim drops transaction bodies, keeping only their hashes.
func (b *Block) Trim() *Trimmed {
	hashes := make([]util.Uint256, len(b.Transactions))
	for i, t := range b.Transactions {
		hashes[i] = t.Hash()
	}
	return &Trimmed{Header: b.Header, Hashes: hashes}
}
