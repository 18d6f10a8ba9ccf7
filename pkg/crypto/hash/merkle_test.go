package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/util"
)

func leafHash(b byte) util.Uint256 {
	return hash.Sha256([]byte{b})
}

func TestMerkleRootEmpty(t *testing.T) {
	assert.Equal(t, util.Uint256{}, hash.MerkleRoot(nil))
}

func TestMerkleRootSingle(t *testing.T) {
	h := leafHash(1)
	assert.Equal(t, h, hash.MerkleRoot([]util.Uint256{h}))
}

func TestMerkleRootOddDuplicatesLast(t *testing.T) {
	hashes := []util.Uint256{leafHash(1), leafHash(2), leafHash(3)}
	withDup := append(append([]util.Uint256{}, hashes...), hashes[len(hashes)-1])
	assert.Equal(t, hash.MerkleRoot(withDup), hash.MerkleRoot(hashes))
}

func TestMerkleTreeRootMatchesMerkleRoot(t *testing.T) {
	hashes := []util.Uint256{leafHash(1), leafHash(2), leafHash(3), leafHash(4), leafHash(5)}
	tree := hash.NewMerkleTree(hashes)
	assert.Equal(t, hash.MerkleRoot(hashes), tree.Root())
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	a := hash.MerkleRoot([]util.Uint256{leafHash(1), leafHash(2)})
	b := hash.MerkleRoot([]util.Uint256{leafHash(2), leafHash(1)})
	assert.NotEqual(t, a, b)
}
