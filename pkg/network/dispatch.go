package network

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/mempool"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/network/payload"
	"github.com/n3-core/node/pkg/util"
)

// dispatch decodes env's payload and routes it to the matching
// handler (spec §4.K "Commands").
func (s *Server) dispatch(p *Peer, env *payload.Envelope) error {
	switch env.Command {
	case payload.CmdPing:
		return s.onPing(p, env)
	case payload.CmdPong:
		return s.onPong(p, env)
	case payload.CmdGetAddr:
		return s.onGetAddr(p, env)
	case payload.CmdAddr:
		return s.onAddr(p, env)
	case payload.CmdInv:
		return s.onInv(p, env)
	case payload.CmdGetData:
		return s.onGetData(p, env)
	case payload.CmdNotFound:
		return s.onNotFound(p, env)
	case payload.CmdTransaction:
		return s.onTransaction(p, env)
	case payload.CmdBlock:
		return s.onBlock(p, env)
	case payload.CmdGetHeaders:
		return s.onGetHeaders(p, env)
	case payload.CmdHeaders:
		return s.onHeaders(p, env)
	case payload.CmdGetBlocks:
		return s.onGetBlocks(p, env)
	case payload.CmdMempool:
		return s.onMempool(p, env)
	case payload.CmdConsensus, payload.CmdExtensible:
		return s.onConsensus(p, env)
	case payload.CmdReject:
		return nil
	default:
		return fmt.Errorf("network: unhandled command %s", env.Command)
	}
}

func (s *Server) onPing(p *Peer, env *payload.Envelope) error {
	ping := new(payload.Ping)
	if err := decodePayload(env, ping); err != nil {
		return err
	}
	pong := &payload.Pong{LastBlockIndex: s.chain.BlockHeight(), Timestamp: ping.Timestamp, Nonce: ping.Nonce}
	s.sendAsync(p, payload.CmdPong, pong)
	return nil
}

func (s *Server) onPong(p *Peer, env *payload.Envelope) error {
	pong := new(payload.Pong)
	return decodePayload(env, pong)
}

func (s *Server) onGetAddr(p *Peer, env *payload.Envelope) error {
	entries := s.addrs.GoodAddresses(200)
	s.sendAsync(p, payload.CmdAddr, &payload.Addr{Entries: entries})
	return nil
}

func (s *Server) onAddr(p *Peer, env *payload.Envelope) error {
	addr := new(payload.Addr)
	if err := decodePayload(env, addr); err != nil {
		return err
	}
	for _, e := range addr.Entries {
		s.addrs.Add(e)
	}
	return nil
}

func (s *Server) onInv(p *Peer, env *payload.Envelope) error {
	inv := new(payload.Inventory)
	if err := decodePayload(env, inv); err != nil {
		return err
	}
	var want []util.Uint256
	for _, h := range inv.Hashes {
		if s.haveInventory(inv.Type, h) || s.tasks.RequestedByOther(h) {
			continue
		}
		want = append(want, h)
	}
	if len(want) == 0 {
		return nil
	}
	s.sendAsync(p, payload.CmdGetData, &payload.Inventory{Type: inv.Type, Hashes: want})
	for _, h := range want {
		s.tasks.MarkRequested(inv.Type, h, p.Address)
	}
	return nil
}

func (s *Server) haveInventory(t payload.InventoryType, h util.Uint256) bool {
	switch t {
	case payload.InvTx:
		if s.chain.Mempool.Contains(h) {
			return true
		}
		_, _, err := s.chain.GetTransaction(h)
		return err == nil
	case payload.InvBlock:
		_, err := s.chain.GetBlock(h)
		return err == nil
	default:
		return false
	}
}

func (s *Server) onGetData(p *Peer, env *payload.Envelope) error {
	inv := new(payload.Inventory)
	if err := decodePayload(env, inv); err != nil {
		return err
	}
	var notFound []util.Uint256
	for _, h := range inv.Hashes {
		switch inv.Type {
		case payload.InvTx:
			tx, _, err := s.chain.GetTransaction(h)
			if err != nil {
				notFound = append(notFound, h)
				continue
			}
			s.sendAsync(p, payload.CmdTransaction, &payload.TxPayload{Tx: tx})
		case payload.InvBlock:
			b, err := s.chain.GetBlock(h)
			if err != nil {
				notFound = append(notFound, h)
				continue
			}
			s.sendAsync(p, payload.CmdBlock, &payload.BlockPayload{Block: b})
		default:
			notFound = append(notFound, h)
		}
	}
	if len(notFound) > 0 {
		s.sendAsync(p, payload.CmdNotFound, &payload.Inventory{Type: inv.Type, Hashes: notFound})
	}
	return nil
}

func (s *Server) onNotFound(p *Peer, env *payload.Envelope) error {
	inv := new(payload.Inventory)
	if err := decodePayload(env, inv); err != nil {
		return err
	}
	for _, h := range inv.Hashes {
		s.tasks.Fulfill(h)
	}
	return nil
}

// onTransaction implements spec §4.K "Transaction relay": verify, admit
// to the mempool, and on success advertise to a peer subset excluding
// the sender.
func (s *Server) onTransaction(p *Peer, env *payload.Envelope) error {
	txp := new(payload.TxPayload)
	if err := decodePayload(env, txp); err != nil {
		return err
	}
	hash := txp.Tx.Hash()
	s.tasks.Fulfill(hash)

	result, err := s.chain.Mempool.Add(txp.Tx, func(tx *transaction.Transaction) mempool.Result {
		return mempool.Result(s.chain.VerifyTransaction(tx))
	})
	if err != nil || result != mempool.Succeed {
		if result != mempool.AlreadyExists {
			p.AddMisbehavior(reject1, "rejected transaction")
		}
		return nil
	}
	s.Broadcast(payload.CmdInv, &payload.Inventory{Type: payload.InvTx, Hashes: []util.Uint256{hash}}, p)
	return nil
}

// onBlock implements spec §4.K "Block relay": dispatch to the block
// processor, advertise on success, penalize the sender on rejection.
func (s *Server) onBlock(p *Peer, env *payload.Envelope) error {
	bp := new(payload.BlockPayload)
	if err := decodePayload(env, bp); err != nil {
		return err
	}
	hash := bp.Block.Hash()
	s.tasks.Fulfill(hash)

	if err := s.chain.AddBlock(bp.Block); err != nil {
		p.AddMisbehavior(rejectSevere, "invalid block: "+err.Error())
		return nil
	}
	s.Broadcast(payload.CmdInv, &payload.Inventory{Type: payload.InvBlock, Hashes: []util.Uint256{hash}}, p)
	return nil
}

// Misbehavior penalties for rejected gossip, scaled so a handful of
// invalid transactions is tolerated but a single invalid block (far
// more expensive to produce accidentally) weighs heavily toward a ban.
const (
	reject1      = int32(1)
	rejectSevere = int32(20)
)

func (s *Server) onGetHeaders(p *Peer, env *payload.Envelope) error {
	req := new(payload.GetHeaders)
	if err := decodePayload(env, req); err != nil {
		return err
	}
	startIndex, err := s.indexAfter(req.HashStart)
	if err != nil {
		return nil
	}
	count := int(req.Count)
	if count <= 0 || count > 2000 {
		count = 2000
	}
	var headers []*block.Header
	for i := 0; i < count; i++ {
		idx := startIndex + uint32(i) + 1
		h := s.chain.GetHeaderHash(idx)
		if h.Equals(util.Uint256{}) {
			break
		}
		b, err := s.chain.GetBlock(h)
		if err != nil {
			break
		}
		headers = append(headers, &b.Header)
	}
	if len(headers) == 0 {
		return nil
	}
	s.sendAsync(p, payload.CmdHeaders, &payload.Headers{Headers: headers})
	return nil
}

func (s *Server) onHeaders(p *Peer, env *payload.Envelope) error {
	h := new(payload.Headers)
	if err := decodePayload(env, h); err != nil {
		return err
	}
	if len(h.Headers) == 0 {
		return nil
	}
	last := h.Headers[len(h.Headers)-1]
	s.sendAsync(p, payload.CmdGetHeaders, &payload.GetHeaders{HashStart: last.Hash(), Count: -1})
	return nil
}

func (s *Server) onGetBlocks(p *Peer, env *payload.Envelope) error {
	req := new(payload.GetBlocks)
	if err := decodePayload(env, req); err != nil {
		return err
	}
	startIndex, err := s.indexAfter(req.HashStart)
	if err != nil {
		return nil
	}
	count := int(req.Count)
	if count <= 0 || count > 500 {
		count = 500
	}
	for i := 0; i < count; i++ {
		idx := startIndex + uint32(i) + 1
		h := s.chain.GetHeaderHash(idx)
		if h.Equals(util.Uint256{}) {
			break
		}
		b, err := s.chain.GetBlock(h)
		if err != nil {
			break
		}
		s.sendAsync(p, payload.CmdBlock, &payload.BlockPayload{Block: b})
	}
	return nil
}

func (s *Server) indexAfter(hash util.Uint256) (uint32, error) {
	if hash.Equals(util.Uint256{}) {
		return 0, nil
	}
	b, err := s.chain.GetBlock(hash)
	if err != nil {
		return 0, err
	}
	return b.Header.Index, nil
}

func (s *Server) onMempool(p *Peer, env *payload.Envelope) error {
	return nil
}

// onConsensus relays a Consensus/Extensible payload to the local
// consensus service, if this node runs one, and rebroadcasts it to
// other peers (consensus messages are flooded, not pulled via Inv).
func (s *Server) onConsensus(p *Peer, env *payload.Envelope) error {
	raw, err := env.DecompressedPayload(0)
	if err != nil {
		return err
	}
	if s.consensus != nil {
		if err := s.consensus.HandlePayload(raw); err != nil {
			s.log.Debug("network: consensus payload rejected", zap.Error(err))
			return nil
		}
	}
	env2, err := payload.NewEnvelope(uint32(s.proto.Magic), env.Command, raw, false)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, pr := range s.peers {
		if pr != p {
			peers = append(peers, pr)
		}
	}
	s.mu.RUnlock()
	for _, pr := range peers {
		pr.Send(env2)
	}
	return nil
}
