// Package block implements the NEO3 block header and block data model:
// hashing, Merkle-root verification, and the trimmed (header + hash
// list) persisted form (spec §3.1 "BlockHeader", "Block").
package block

import (
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// Header is the NEO3 block header (spec §3.1 "BlockHeader").
type Header struct {
	Version       uint32
	PrevHash      util.Uint256
	MerkleRoot    util.Uint256
	Timestamp     uint64 // milliseconds
	Nonce         uint64
	Index         uint32
	PrimaryIndex  byte
	NextConsensus util.Uint160
	Witness       transaction.Witness

	hash      util.Uint256
	hashValid bool
}

// Hash returns Hash256 of the header's hashable fields, computing and
// caching it on first use.
func (h *Header) Hash() util.Uint256 {
	if !h.hashValid {
		w := io.NewBufBinWriter()
		h.encodeHashable(w.BinWriter)
		h.hash = hash.Hash256(w.Bytes())
		h.hashValid = true
	}
	return h.hash
}

func (h *Header) encodeHashable(w *io.BinWriter) {
	w.WriteU32LE(h.Version)
	w.WriteBytes(h.PrevHash[:])
	w.WriteBytes(h.MerkleRoot[:])
	w.WriteU64LE(h.Timestamp)
	w.WriteU64LE(h.Nonce)
	w.WriteU32LE(h.Index)
	w.WriteB(h.PrimaryIndex)
	w.WriteBytes(h.NextConsensus[:])
}

// EncodeBinary implements io.Serializable. The wire form always carries
// exactly one witness (spec §6.1 "u8 witness_count (always 1 on wire;
// enforced)").
func (h *Header) EncodeBinary(w *io.BinWriter) {
	h.encodeHashable(w)
	w.WriteVarUint(1)
	h.Witness.EncodeBinary(w)
}

// DecodeBinary implements io.Serializable.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Version = r.ReadU32LE()
	r.ReadBytes(h.PrevHash[:])
	r.ReadBytes(h.MerkleRoot[:])
	h.Timestamp = r.ReadU64LE()
	h.Nonce = r.ReadU64LE()
	h.Index = r.ReadU32LE()
	h.PrimaryIndex = r.ReadB()
	r.ReadBytes(h.NextConsensus[:])
	n := r.ReadVarUint()
	if r.Err == nil && n != 1 {
		r.Err = errInvalidWitnessCount
		return
	}
	h.Witness.DecodeBinary(r)
	h.hashValid = false
}

var errInvalidWitnessCount = headerError("block: header witness count must be exactly 1")

type headerError string

func (e headerError) Error() string { return string(e) }

// Verify checks the structural/chaining invariants linking h to prev
// (spec §4.I step 1): height increments by exactly one, timestamp
// strictly increases, and prev_hash matches. Witness and primary-index
// checks require the validator set and are performed by the block
// processor, which has access to chain state.
func (h *Header) Verify(prev *Header) error {
	if h.Index != prev.Index+1 {
		return headerError("block: index does not follow previous block")
	}
	if h.Timestamp <= prev.Timestamp {
		return headerError("block: timestamp does not strictly increase")
	}
	if !h.PrevHash.Equals(prev.Hash()) {
		return headerError("block: prev_hash mismatch")
	}
	return nil
}
