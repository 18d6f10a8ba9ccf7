package hash

import "github.com/n3-core/node/pkg/util"

// MerkleRoot computes the Merkle root of hashes per spec §4.A: pairwise
// Hash256(left||right), duplicating the last element when the level has
// an odd count; an empty input yields the zero hash.
func MerkleRoot(hashes []util.Uint256) util.Uint256 {
	if len(hashes) == 0 {
		return util.Uint256{}
	}
	level := make([]util.Uint256, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]util.Uint256, len(level)/2)
		for i := range next {
			buf := make([]byte, util.Uint256Size*2)
			copy(buf, level[2*i].BytesLE())
			copy(buf[util.Uint256Size:], level[2*i+1].BytesLE())
			h, _ := util.Uint256DecodeBytesLE(Hash256(buf).BytesLE())
			next[i] = h
		}
		level = next
	}
	return level[0]
}

// MerkleTree keeps intermediate levels so individual inclusion proofs can
// be extracted without recomputing the whole tree.
type MerkleTree struct {
	levels [][]util.Uint256
}

// NewMerkleTree builds a MerkleTree over hashes, retaining every level.
func NewMerkleTree(hashes []util.Uint256) *MerkleTree {
	if len(hashes) == 0 {
		return &MerkleTree{levels: [][]util.Uint256{{{}}}}
	}
	level := make([]util.Uint256, len(hashes))
	copy(level, hashes)
	levels := [][]util.Uint256{level}
	for len(level) > 1 {
		cur := level
		if len(cur)%2 != 0 {
			cur = append(append([]util.Uint256{}, cur...), cur[len(cur)-1])
		}
		next := make([]util.Uint256, len(cur)/2)
		for i := range next {
			buf := make([]byte, util.Uint256Size*2)
			copy(buf, cur[2*i].BytesLE())
			copy(buf[util.Uint256Size:], cur[2*i+1].BytesLE())
			next[i], _ = util.Uint256DecodeBytesLE(Hash256(buf).BytesLE())
		}
		levels = append(levels, next)
		level = next
	}
	return &MerkleTree{levels: levels}
}

// Root returns the tree's root hash.
func (t *MerkleTree) Root() util.Uint256 {
	top := t.levels[len(t.levels)-1]
	return top[0]
}
