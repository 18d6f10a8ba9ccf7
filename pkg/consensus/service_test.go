package consensus

import (
	"testing"
	"time"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNetwork struct {
	t         *testing.T
	services  []*Service
	delivered []*block.Block
}

type queuedPayload struct {
	from int
	p    *Payload
}

// deliver runs a breadth-first event loop: every message already queued
// is delivered to all peers before any message it provokes is processed,
// so a validator never has to react to a PrepareResponse/Commit for a
// round it has not yet seen the PrepareRequest for.
func (n *testNetwork) deliver(seed []queuedPayload) {
	queue := append([]queuedPayload{}, seed...)
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		for j, s := range n.services {
			if j == ev.from {
				continue
			}
			out, err := s.OnPayload(ev.p)
			require.NoError(n.t, err)
			for _, op := range out {
				queue = append(queue, queuedPayload{from: j, p: op})
			}
		}
	}
}

func newTestNetwork(t *testing.T, size int) *testNetwork {
	t.Helper()
	net := &testNetwork{t: t}
	var pubs keys.PublicKeys
	var privs []*keys.PrivateKey
	for i := 0; i < size; i++ {
		pk, err := keys.NewPrivateKey()
		require.NoError(t, err)
		privs = append(privs, pk)
		pubs = append(pubs, pk.PublicKey())
	}

	net.services = make([]*Service, size)
	for i := 0; i < size; i++ {
		idx := i
		net.services[i] = NewService(Config{
			Validators: pubs,
			MyIndex:    idx,
			PrivateKey: privs[idx],
			GetVerifiedTransactions: func() []*transaction.Transaction {
				return nil
			},
			ProcessBlock: func(b *block.Block) error {
				net.delivered = append(net.delivered, b)
				return nil
			},
			Now: func() time.Time { return time.UnixMilli(1000) },
		})
	}
	return net
}

func (n *testNetwork) start(blockIndex uint32, prevHash util.Uint256, prevTimestamp uint64) {
	var seed []queuedPayload
	for i, s := range n.services {
		for _, p := range s.Start(blockIndex, prevHash, prevTimestamp) {
			seed = append(seed, queuedPayload{from: i, p: p})
		}
	}
	n.deliver(seed)
}

func TestConsensusHappyPathCommitsBlock(t *testing.T) {
	net := newTestNetwork(t, 4)
	net.start(1, util.Uint256{}, 0)

	require.Len(t, net.delivered, 4, "every validator should independently assemble and deliver the committed block")
	first := net.delivered[0].Hash()
	for _, b := range net.delivered[1:] {
		assert.Equal(t, first, b.Hash())
	}
}

func TestPrimaryIndexRotatesWithView(t *testing.T) {
	assert.Equal(t, 5, primaryIndex(5, 0, 7))
	assert.Equal(t, 4, primaryIndex(5, 1, 7))
	assert.Equal(t, 0, primaryIndex(7, 0, 7))
}

func TestPrimaryIndexWrapsWhenViewExceedsBlockIndex(t *testing.T) {
	assert.Equal(t, 6, primaryIndex(0, 1, 7))
	assert.Equal(t, 5, primaryIndex(0, 2, 7))
	assert.Equal(t, 4, primaryIndex(1, 4, 7))
}

func TestQuorumIsNMinusF(t *testing.T) {
	assert.Equal(t, 3, quorum(4))
	assert.Equal(t, 5, quorum(7))
	assert.Equal(t, 1, quorum(1))
}

func TestChangeViewSwitchesPrimary(t *testing.T) {
	net := newTestNetwork(t, 4)
	for _, s := range net.services {
		s.round = newRoundState(1)
		s.prevHash = util.Uint256{}
	}

	var seed []queuedPayload
	for i, s := range net.services {
		for _, p := range s.requestViewChange(ReasonTimeout) {
			seed = append(seed, queuedPayload{from: i, p: p})
		}
	}
	net.deliver(seed)

	for i, s := range net.services {
		assert.Equalf(t, byte(1), s.round.view, "validator %d should have adopted the new view", i)
	}
}
