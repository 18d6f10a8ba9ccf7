package mpt

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"

	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// Trie is a radix-16 Merkle-Patricia trie over a pluggable key-value
// store, computing per-contract state roots (spec §4.C).
type Trie struct {
	store   storage.Store
	cache   *lru.Cache // util.Uint256 -> Node
	root    Node
	refDelta map[util.Uint256]int32
}

// New creates a Trie rooted at root (the zero hash for an empty trie),
// backed by store for any node not already cached.
func New(store storage.Store, root util.Uint256) *Trie {
	c, _ := lru.New(4096)
	t := &Trie{store: store, cache: c, refDelta: make(map[util.Uint256]int32)}
	if root == (util.Uint256{}) {
		t.root = nil
	} else {
		t.root = &HashNode{H: root}
	}
	return t
}

// Root returns the current root hash; the zero hash for an empty trie.
func (t *Trie) Root() util.Uint256 {
	if t.root == nil {
		return util.Uint256{}
	}
	return t.root.Hash()
}

func keyToNibbles(key []byte) []byte {
	n := make([]byte, len(key)*2)
	for i, b := range key {
		n[2*i] = b >> 4
		n[2*i+1] = b & 0x0f
	}
	return n
}

func (t *Trie) resolve(n Node) Node {
	hn, ok := n.(*HashNode)
	if !ok {
		return n
	}
	if hn.H == (util.Uint256{}) {
		return nil
	}
	if v, ok := t.cache.Get(hn.H); ok {
		return v.(Node)
	}
	raw, err := t.store.Get(storage.AppendPrefix(storage.DataMPT, hn.H.BytesLE()))
	if err != nil {
		return nil
	}
	r := io.NewBinReaderFromBuf(raw)
	tag := NodeType(r.ReadB())
	var node Node
	switch tag {
	case BranchT:
		b := &Branch{}
		b.DecodeBinary(r)
		node = b
	case ExtensionT:
		e := &Extension{}
		e.DecodeBinary(r)
		node = e
	case LeafT:
		l := &Leaf{}
		l.DecodeBinary(r)
		node = l
	default:
		return nil
	}
	if r.Err != nil {
		return nil
	}
	t.cache.Add(hn.H, node)
	return node
}

// Get looks up key, returning ErrNotFound if absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	path := keyToNibbles(key)
	v, ok := t.get(t.root, path)
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (t *Trie) get(n Node, path []byte) ([]byte, bool) {
	n = t.resolve(n)
	switch node := n.(type) {
	case nil:
		return nil, false
	case *Leaf:
		if len(path) == 0 {
			return node.Value, true
		}
		return nil, false
	case *Branch:
		if len(path) == 0 {
			if node.Value != nil {
				return node.Value, true
			}
			return nil, false
		}
		return t.get(node.Children[path[0]], path[1:])
	case *Extension:
		if len(path) < len(node.Path) || !nibblesEqual(path[:len(node.Path)], node.Path) {
			return nil, false
		}
		return t.get(node.Child, path[len(node.Path):])
	}
	return nil, false
}

func nibblesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Put inserts or overwrites the value at key.
func (t *Trie) Put(key, value []byte) error {
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if len(value) > MaxValueLength {
		return ErrValueTooLong
	}
	path := keyToNibbles(key)
	t.root = t.put(t.root, path, value)
	return nil
}

func (t *Trie) put(n Node, path []byte, value []byte) Node {
	n = t.resolve(n)
	switch node := n.(type) {
	case nil:
		if len(path) == 0 {
			return &Leaf{Value: value}
		}
		return &Extension{Path: path, Child: &Leaf{Value: value}}
	case *Leaf:
		if len(path) == 0 {
			return &Leaf{Value: value}
		}
		b := &Branch{Value: node.Value}
		b.Children[path[0]] = t.put(nil, path[1:], value)
		return b
	case *Branch:
		if len(path) == 0 {
			nb := *node
			nb.Value = value
			return &nb
		}
		nb := *node
		nb.Children[path[0]] = t.put(node.Children[path[0]], path[1:], value)
		return &nb
	case *Extension:
		cpl := commonPrefixLen(path, node.Path)
		if cpl == len(node.Path) {
			ne := &Extension{Path: node.Path, Child: t.put(node.Child, path[cpl:], value)}
			return ne
		}
		// split the extension at cpl
		b := &Branch{}
		if cpl < len(node.Path) {
			rest := node.Path[cpl+1:]
			var childAfter Node = node.Child
			if len(rest) > 0 {
				childAfter = &Extension{Path: rest, Child: node.Child}
			}
			b.Children[node.Path[cpl]] = childAfter
		}
		if cpl < len(path) {
			b.Children[path[cpl]] = t.put(nil, path[cpl+1:], value)
		} else {
			b.Value = value
		}
		if cpl == 0 {
			return b
		}
		return &Extension{Path: path[:cpl], Child: b}
	}
	return n
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Delete removes key from the trie, if present.
func (t *Trie) Delete(key []byte) error {
	path := keyToNibbles(key)
	t.root, _ = t.del(t.root, path)
	return nil
}

func (t *Trie) del(n Node, path []byte) (Node, bool) {
	n = t.resolve(n)
	switch node := n.(type) {
	case nil:
		return nil, false
	case *Leaf:
		if len(path) == 0 {
			return nil, true
		}
		return node, false
	case *Branch:
		if len(path) == 0 {
			if node.Value == nil {
				return node, false
			}
			nb := *node
			nb.Value = nil
			return compactBranch(&nb), true
		}
		child, ok := t.del(node.Children[path[0]], path[1:])
		if !ok {
			return node, false
		}
		nb := *node
		nb.Children[path[0]] = child
		return compactBranch(&nb), true
	case *Extension:
		if len(path) < len(node.Path) || !nibblesEqual(path[:len(node.Path)], node.Path) {
			return node, false
		}
		child, ok := t.del(node.Child, path[len(node.Path):])
		if !ok {
			return node, false
		}
		if child == nil {
			return nil, true
		}
		return &Extension{Path: node.Path, Child: child}, true
	}
	return n, false
}

// compactBranch collapses a branch with a single remaining child (and no
// value) into an extension/leaf, the standard MPT post-delete cleanup.
func compactBranch(b *Branch) Node {
	count := 0
	idx := -1
	for i, c := range b.Children {
		if c != nil {
			count++
			idx = i
		}
	}
	if count == 0 && b.Value != nil {
		return &Leaf{Value: b.Value}
	}
	if count == 1 && b.Value == nil {
		child := b.Children[idx]
		switch c := child.(type) {
		case *Extension:
			return &Extension{Path: append([]byte{byte(idx)}, c.Path...), Child: c.Child}
		case *HashNode:
			return &Extension{Path: []byte{byte(idx)}, Child: c}
		default:
			return &Extension{Path: []byte{byte(idx)}, Child: child}
		}
	}
	return b
}

// Flush persists every reachable node into the store atomically and bumps
// refcounts for newly written nodes, implementing the refcounted sharing
// of spec §4.C (unchanged subtrees between successive state versions are
// simply never re-visited since they already hash-match what's stored).
func (t *Trie) Flush() error {
	b := t.store.Batch()
	visited := make(map[util.Uint256]bool)
	var walk func(n Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case nil, *HashNode:
			return
		case *Branch:
			h := node.Hash()
			if !visited[h] {
				visited[h] = true
				persistNode(t.store, b, node, h)
				bumpRefcount(t.store, b, h, 1)
			}
			for _, c := range node.Children {
				walk(c)
			}
		case *Extension:
			h := node.Hash()
			if !visited[h] {
				visited[h] = true
				persistNode(t.store, b, node, h)
				bumpRefcount(t.store, b, h, 1)
			}
			walk(node.Child)
		case *Leaf:
			h := node.Hash()
			if !visited[h] {
				visited[h] = true
				persistNode(t.store, b, node, h)
				bumpRefcount(t.store, b, h, 1)
			}
		}
	}
	walk(t.root)
	if err := t.store.PutBatch(b); err != nil {
		return err
	}
	// After flush, collapse in-memory tree to a single HashNode root so
	// subsequent Tries reload lazily from the store.
	if t.root != nil {
		t.root = &HashNode{H: t.root.Hash()}
	}
	return nil
}

func persistNode(store storage.Store, b storage.Batch, n Node, h util.Uint256) {
	if _, err := store.Get(storage.AppendPrefix(storage.DataMPT, h.BytesLE())); err == nil {
		return // already stored, identical content by hash
	}
	w := io.NewBufBinWriter()
	n.EncodeBinary(w.BinWriter)
	b.Put(storage.AppendPrefix(storage.DataMPT, h.BytesLE()), w.Bytes())
}

func bumpRefcount(store storage.Store, b storage.Batch, h util.Uint256, delta int32) {
	key := storage.AppendPrefix(storage.DataMPTRefCount, h.BytesLE())
	var cur uint32
	if v, err := store.Get(key); err == nil && len(v) == 4 {
		cur = binary.LittleEndian.Uint32(v)
	}
	next := int64(cur) + int64(delta)
	if next <= 0 {
		b.Delete(key)
		return
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(next))
	b.Put(key, buf)
}
