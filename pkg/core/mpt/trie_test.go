package mpt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/mpt"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/util"
)

func TestTriePutGetDelete(t *testing.T) {
	store := storage.NewMemoryStore()
	tr := mpt.New(store, util.Uint256{})

	require.NoError(t, tr.Put([]byte("alpha"), []byte("1")))
	require.NoError(t, tr.Put([]byte("alp"), []byte("2")))
	require.NoError(t, tr.Put([]byte("beta"), []byte("3")))

	v, err := tr.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	v, err = tr.Get([]byte("alp"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, tr.Delete([]byte("alp")))
	_, err = tr.Get([]byte("alp"))
	assert.ErrorIs(t, err, mpt.ErrNotFound)

	v, err = tr.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestTrieRootChangesDeterministically(t *testing.T) {
	store1 := storage.NewMemoryStore()
	t1 := mpt.New(store1, util.Uint256{})
	require.NoError(t, t1.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, t1.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, t1.Flush())

	store2 := storage.NewMemoryStore()
	t2 := mpt.New(store2, util.Uint256{})
	// Insert in the opposite order; the resulting trie should still
	// converge to the same root (spec §8 "state_root ... trie_root").
	require.NoError(t, t2.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, t2.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, t2.Flush())

	assert.Equal(t, t1.Root(), t2.Root())
	assert.NotEqual(t, util.Uint256{}, t1.Root())
}

func TestEmptyTrieRootIsZero(t *testing.T) {
	tr := mpt.New(storage.NewMemoryStore(), util.Uint256{})
	assert.Equal(t, util.Uint256{}, tr.Root())
}

func TestVerifyProofRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	tr := mpt.New(store, util.Uint256{})
	require.NoError(t, tr.Put([]byte("one"), []byte{0xaa}))
	require.NoError(t, tr.Put([]byte("two"), []byte{0xbb}))
	require.NoError(t, tr.Put([]byte("three"), []byte{0xcc}))
	require.NoError(t, tr.Flush())

	root := tr.Root()
	proof, err := tr.Prove([]byte("two"))
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	assert.True(t, mpt.VerifyProof(root, []byte("two"), []byte{0xbb}, proof))
	assert.False(t, mpt.VerifyProof(root, []byte("two"), []byte{0xcc}, proof))

	// Flipping a byte of the proof must invalidate verification (spec §8).
	corrupt := make(mpt.Proof, len(proof))
	for i, p := range proof {
		c := make([]byte, len(p))
		copy(c, p)
		corrupt[i] = c
	}
	corrupt[0][0] ^= 0xff
	assert.False(t, mpt.VerifyProof(root, []byte("two"), []byte{0xbb}, corrupt))
}

func TestTrieKeyTooLong(t *testing.T) {
	tr := mpt.New(storage.NewMemoryStore(), util.Uint256{})
	key := make([]byte, mpt.MaxKeyLength+1)
	err := tr.Put(key, []byte{1})
	assert.ErrorIs(t, err, mpt.ErrKeyTooLong)
}
