// Package mpt implements the state's radix-16 Merkle-Patricia trie: four
// node variants, proof generation/verification, and refcounted node
// storage, per spec §4.C.
package mpt

import (
	"errors"

	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// NodeType tags the four node variants on the wire.
type NodeType byte

// Node type tags.
const (
	BranchT   NodeType = 0x00
	ExtensionT NodeType = 0x01
	LeafT     NodeType = 0x02
	HashT     NodeType = 0x03
)

// MaxKeyLength and MaxValueLength bound stored key/value sizes (spec §4.C).
const (
	MaxKeyLength   = 1024
	MaxValueLength = 1 << 20
)

// Node is the common interface of Branch, Extension, Leaf and HashNode.
type Node interface {
	io.Serializable
	Type() NodeType
	// Hash returns the node's content hash: SHA-256 over its canonical
	// serialization.
	Hash() util.Uint256
}

// Branch has 16 nibble children plus an optional value at the branch
// itself (for keys that terminate exactly at this node).
type Branch struct {
	Children [16]Node
	Value    []byte // nil if absent
}

// Type implements Node.
func (*Branch) Type() NodeType { return BranchT }

// EncodeBinary implements io.Serializable.
func (b *Branch) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(BranchT))
	for _, c := range b.Children {
		encodeChildRef(w, c)
	}
	hasValue := b.Value != nil
	w.WriteBool(hasValue)
	if hasValue {
		w.WriteVarBytes(b.Value)
	}
}

// DecodeBinary implements io.Serializable.
func (b *Branch) DecodeBinary(r *io.BinReader) {
	for i := range b.Children {
		b.Children[i] = decodeChildRef(r)
	}
	if r.ReadBool() {
		b.Value = r.ReadVarBytes(MaxValueLength)
	}
}

// Hash implements Node.
func (b *Branch) Hash() util.Uint256 { return nodeHash(b) }

// Extension compresses a run of nibbles shared by every key below it.
type Extension struct {
	Path  []byte // nibbles, one per byte, high nibble unused
	Child Node
}

// Type implements Node.
func (*Extension) Type() NodeType { return ExtensionT }

// EncodeBinary implements io.Serializable.
func (e *Extension) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(ExtensionT))
	w.WriteVarBytes(e.Path)
	encodeChildRef(w, e.Child)
}

// DecodeBinary implements io.Serializable.
func (e *Extension) DecodeBinary(r *io.BinReader) {
	e.Path = r.ReadVarBytes(MaxKeyLength * 2)
	e.Child = decodeChildRef(r)
}

// Hash implements Node.
func (e *Extension) Hash() util.Uint256 { return nodeHash(e) }

// Leaf stores a terminal value.
type Leaf struct {
	Value []byte
}

// Type implements Node.
func (*Leaf) Type() NodeType { return LeafT }

// EncodeBinary implements io.Serializable.
func (l *Leaf) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(LeafT))
	w.WriteVarBytes(l.Value)
}

// DecodeBinary implements io.Serializable.
func (l *Leaf) DecodeBinary(r *io.BinReader) {
	l.Value = r.ReadVarBytes(MaxValueLength)
}

// Hash implements Node.
func (l *Leaf) Hash() util.Uint256 { return nodeHash(l) }

// HashNode is a reference-by-hash to a node persisted separately, used
// for paged/lazy storage: large subtrees don't need to be held in memory.
type HashNode struct {
	H util.Uint256
}

// Type implements Node.
func (*HashNode) Type() NodeType { return HashT }

// EncodeBinary implements io.Serializable.
func (h *HashNode) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(HashT))
	w.WriteBytes(h.H.BytesLE())
}

// DecodeBinary implements io.Serializable.
func (h *HashNode) DecodeBinary(r *io.BinReader) {
	buf := make([]byte, util.Uint256Size)
	r.ReadBytes(buf)
	h.H, _ = util.Uint256DecodeBytesLE(buf)
}

// Hash implements Node; a HashNode's hash is simply the hash it references.
func (h *HashNode) Hash() util.Uint256 { return h.H }

func encodeChildRef(w *io.BinWriter, n Node) {
	if n == nil {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	ref := &HashNode{H: n.Hash()}
	ref.EncodeBinary(w)
}

func decodeChildRef(r *io.BinReader) Node {
	if !r.ReadBool() {
		return nil
	}
	hn := &HashNode{}
	hn.DecodeBinary(r)
	return hn
}

func nodeHash(n Node) util.Uint256 {
	w := io.NewBufBinWriter()
	n.EncodeBinary(w.BinWriter)
	return hash.Sha256(w.Bytes())
}

// ErrNotFound is returned by Trie.Get when the key isn't present.
var ErrNotFound = errors.New("key not found in trie")
