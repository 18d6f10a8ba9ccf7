package mpt

import (
	"bytes"
	"errors"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// ErrKeyTooLong is returned by Put when the key exceeds MaxKeyLength.
var ErrKeyTooLong = errors.New("mpt: key too long")

// ErrValueTooLong is returned by Put when the value exceeds MaxValueLength.
var ErrValueTooLong = errors.New("mpt: value too long")

// Proof is an ordered list of the raw serialized nodes visited on the path
// from the root to a key's leaf, sufficient to recompute the root hash
// and thereby authenticate the key/value pair without trusting the store.
type Proof [][]byte

// Prove returns a Proof for key's current value.
func (t *Trie) Prove(key []byte) (Proof, error) {
	path := keyToNibbles(key)
	var proof Proof
	n := t.root
	for {
		n = t.resolve(n)
		if n == nil {
			return nil, ErrNotFound
		}
		w := io.NewBufBinWriter()
		n.EncodeBinary(w.BinWriter)
		proof = append(proof, w.Bytes())
		switch node := n.(type) {
		case *Leaf:
			if len(path) != 0 {
				return nil, ErrNotFound
			}
			return proof, nil
		case *Branch:
			if len(path) == 0 {
				if node.Value == nil {
					return nil, ErrNotFound
				}
				return proof, nil
			}
			n = node.Children[path[0]]
			path = path[1:]
		case *Extension:
			if len(path) < len(node.Path) || !nibblesEqual(path[:len(node.Path)], node.Path) {
				return nil, ErrNotFound
			}
			path = path[len(node.Path):]
			n = node.Child
		default:
			return nil, ErrNotFound
		}
	}
}

// decodeProofNode parses one proof element back into a Node.
func decodeProofNode(raw []byte) (Node, error) {
	r := io.NewBinReaderFromBuf(raw)
	tag := NodeType(r.ReadB())
	var n Node
	switch tag {
	case BranchT:
		b := &Branch{}
		b.DecodeBinary(r)
		n = b
	case ExtensionT:
		e := &Extension{}
		e.DecodeBinary(r)
		n = e
	case LeafT:
		l := &Leaf{}
		l.DecodeBinary(r)
		n = l
	default:
		return nil, errors.New("mpt: invalid proof node tag")
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return n, nil
}

// VerifyProof checks that proof authenticates key -> value under root,
// without touching any store (spec §4.C, §8 round-trip laws).
func VerifyProof(root util.Uint256, key, value []byte, proof Proof) bool {
	if len(proof) == 0 {
		return false
	}
	nodes := make([]Node, len(proof))
	for i, raw := range proof {
		n, err := decodeProofNode(raw)
		if err != nil {
			return false
		}
		nodes[i] = n
	}
	if nodes[0].Hash() != root {
		return false
	}
	path := keyToNibbles(key)
	for i, n := range nodes {
		switch node := n.(type) {
		case *Leaf:
			return len(path) == 0 && bytes.Equal(node.Value, value)
		case *Branch:
			if len(path) == 0 {
				return bytes.Equal(node.Value, value)
			}
			if i+1 >= len(nodes) {
				return false
			}
			child, ok := node.Children[path[0]].(*HashNode)
			if !ok || child.H != nodes[i+1].Hash() {
				return false
			}
			path = path[1:]
		case *Extension:
			if len(path) < len(node.Path) || !nibblesEqual(path[:len(node.Path)], node.Path) {
				return false
			}
			path = path[len(node.Path):]
			if i+1 >= len(nodes) {
				return false
			}
			child, ok := node.Child.(*HashNode)
			if !ok || child.H != nodes[i+1].Hash() {
				return false
			}
		}
	}
	return false
}
