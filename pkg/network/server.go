// Package network implements the P2P overlay: handshake, inventory
// relay, and block/header sync against a core.Blockchain and
// mempool.Pool (spec §4.K).
package network

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	mathrand "math/rand"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/n3-core/node/pkg/config"
	"github.com/n3-core/node/pkg/core"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/metrics"
	"github.com/n3-core/node/pkg/network/addrmgr"
	"github.com/n3-core/node/pkg/network/p2p/taskmanager"
	"github.com/n3-core/node/pkg/network/payload"
	"github.com/n3-core/node/pkg/util"
)

const (
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 10 * time.Second
	readIdleTimeout  = 90 * time.Second
	protocolVersion  = 0
	userAgent        = "/n3-core:0.1.0/"

	// AnnounceFanout is how many connected peers an Inv is relayed to.
	AnnounceFanout = 8
)

// ErrNetworkMismatch is returned (and logged) when a peer's Version
// magic doesn't match this node's network.
var ErrNetworkMismatch = errors.New("network: peer magic mismatch")

// ConsensusDispatcher lets the network package relay Consensus command
// payloads into the consensus service without importing it directly
// (consensus is optional — most nodes are not validators).
type ConsensusDispatcher interface {
	HandlePayload(raw []byte) error
}

// Server is the P2P overlay: it accepts/dials connections, performs the
// handshake, and relays inventory between connected peers and the
// block processor / mempool.
type Server struct {
	cfg   config.P2P
	proto config.ProtocolConfiguration
	chain *core.Blockchain
	log   *zap.Logger

	addrs *addrmgr.Manager
	tasks *taskmanager.Manager

	nonce uint32

	consensus ConsensusDispatcher

	mu    sync.RWMutex
	peers map[string]*Peer

	listener net.Listener
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Server. chain and its Mempool must already be
// initialized; SetConsensusDispatcher may be called before Start to
// enable Consensus/Extensible message relay.
func New(cfg config.P2P, proto config.ProtocolConfiguration, chain *core.Blockchain, store storage.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:   cfg,
		proto: proto,
		chain: chain,
		log:   log,
		addrs: addrmgr.New(store),
		peers: map[string]*Peer{},
		nonce: randomNonce(),
		stop:  make(chan struct{}),
	}
	s.tasks = taskmanager.New(0, s.reissueGetData)
	return s
}

// SetConsensusDispatcher wires a validator's consensus service to
// receive relayed Consensus-command payloads.
func (s *Server) SetConsensusDispatcher(d ConsensusDispatcher) { s.consensus = d }

func randomNonce() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(b[:])
}

// Start begins listening (if TCPPort is set) and dialing the seed list,
// then runs the task-manager sweep until Stop.
func (s *Server) Start() error {
	s.wg.Add(1)
	go func() { defer s.wg.Done(); s.tasks.Run() }()

	if s.cfg.TCPPort != 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.TCPPort))
		if err != nil {
			return fmt.Errorf("network: listen: %w", err)
		}
		s.listener = ln
		s.wg.Add(1)
		go func() { defer s.wg.Done(); s.acceptLoop() }()
	}

	for _, addr := range s.proto.SeedList {
		addr := addr
		s.wg.Add(1)
		go func() { defer s.wg.Done(); s.dial(addr) }()
	}
	return nil
}

// Stop closes the listener, disconnects every peer, and waits for
// background goroutines to exit (spec §5 "Graceful shutdown": P2P
// stops after consensus, before the block processor).
func (s *Server) Stop() error {
	close(s.stop)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.tasks.Stop()

	s.mu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
				s.log.Warn("network: accept error", zap.Error(err))
				return
			}
		}
		if s.peerCount() >= s.cfg.MaxPeers {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() { defer s.wg.Done(); s.handleConn(conn, false) }()
	}
}

func (s *Server) dial(addr string) {
	if s.peerCount() >= s.cfg.MaxPeers {
		return
	}
	conn, err := net.DialTimeout("tcp", addr, handshakeTimeout)
	if err != nil {
		s.log.Debug("network: dial failed", zap.String("addr", addr), zap.Error(err))
		s.addrs.MarkTried(addr, false)
		return
	}
	s.addrs.MarkTried(addr, true)
	s.handleConn(conn, true)
}

func (s *Server) peerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// PeerCount exposes the current connection count for RPC's
// getconnectioncount.
func (s *Server) PeerCount() int { return s.peerCount() }

// Nonce exposes this node's handshake nonce for RPC's getversion.
func (s *Server) Nonce() uint32 { return s.nonce }

// TCPPort exposes the configured P2P listening port for RPC's getversion.
func (s *Server) TCPPort() uint16 { return s.cfg.TCPPort }

// WSPort exposes the configured websocket port for RPC's getversion.
func (s *Server) WSPort() uint16 { return s.cfg.WSPort }

// UserAgent exposes the node's handshake user agent string.
func (s *Server) UserAgent() string { return userAgent }

// Proto exposes the network's consensus-critical protocol parameters
// for RPC's getversion.
func (s *Server) Proto() config.ProtocolConfiguration { return s.proto }

// Peers returns a snapshot of connected peers for RPC's getpeers.
func (s *Server) Peers() []*Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

func (s *Server) handleConn(conn net.Conn, outbound bool) {
	p := newPeer(conn, outbound, s.log)
	if err := s.handshake(p); err != nil {
		s.log.Debug("network: handshake failed", zap.String("addr", p.Address), zap.Error(err))
		p.Close()
		return
	}

	s.mu.Lock()
	s.peers[p.Address] = p
	s.mu.Unlock()
	metrics.SetPeerCount(s.peerCount())
	s.log.Info("network: peer connected", zap.String("addr", p.Address), zap.Bool("outbound", outbound))

	go p.writeLoop()
	s.readLoop(p)

	s.mu.Lock()
	delete(s.peers, p.Address)
	s.mu.Unlock()
	metrics.SetPeerCount(s.peerCount())
	s.log.Info("network: peer disconnected", zap.String("addr", p.Address))
}

// handshake performs the Version/Verack exchange (spec §4.K "Handshake").
func (s *Server) handshake(p *Peer) error {
	if err := p.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	defer p.conn.SetDeadline(time.Time{})

	caps := []payload.Capability{{Type: payload.CapFullNode, Data: s.chain.BlockHeight()}}
	if s.cfg.TCPPort != 0 {
		caps = append(caps, payload.Capability{Type: payload.CapTCPServer, Data: uint32(s.cfg.TCPPort)})
	}
	myVersion := &payload.Version{
		Network:      uint32(s.proto.Magic),
		Version:      protocolVersion,
		Timestamp:    uint32(time.Now().Unix()),
		Nonce:        s.nonce,
		UserAgent:    userAgent,
		Capabilities: caps,
	}
	if err := s.sendSync(p, payload.CmdVersion, myVersion); err != nil {
		return err
	}

	env, err := s.recvSync(p)
	if err != nil {
		return err
	}
	if env.Command != payload.CmdVersion {
		return fmt.Errorf("network: expected Version, got %s", env.Command)
	}
	theirs := new(payload.Version)
	if err := decodePayload(env, theirs); err != nil {
		return err
	}
	if theirs.Network != uint32(s.proto.Magic) {
		return ErrNetworkMismatch
	}
	if theirs.Nonce == s.nonce {
		return errors.New("network: loopback connection")
	}
	p.setVersion(theirs)

	if err := s.sendSync(p, payload.CmdVerack, nil); err != nil {
		return err
	}
	env, err = s.recvSync(p)
	if err != nil {
		return err
	}
	if env.Command != payload.CmdVerack {
		return fmt.Errorf("network: expected Verack, got %s", env.Command)
	}
	return nil
}

func (s *Server) sendSync(p *Peer, cmd payload.Command, body io.Serializable) error {
	raw := []byte{}
	if body != nil {
		w := binWriter()
		body.EncodeBinary(w)
		if w.Err != nil {
			return w.Err
		}
		raw = w.Bytes()
	}
	env, err := payload.NewEnvelope(uint32(s.proto.Magic), cmd, raw, false)
	if err != nil {
		return err
	}
	return p.writeEnvelope(env)
}

func (s *Server) recvSync(p *Peer) (*payload.Envelope, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return nil, err
	}
	return readEnvelope(p.conn)
}

func decodePayload(env *payload.Envelope, v io.Serializable) error {
	raw, err := env.DecompressedPayload(0)
	if err != nil {
		return err
	}
	r := io.NewBinReaderFromBuf(raw)
	v.DecodeBinary(r)
	return r.Err
}

func binWriter() *io.BufBinWriter { return io.NewBufBinWriter() }

func readEnvelope(conn net.Conn) (*payload.Envelope, error) {
	r := io.NewBinReaderFromIO(conn)
	env := new(payload.Envelope)
	env.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return env, nil
}

func (s *Server) readLoop(p *Peer) {
	for {
		if err := p.conn.SetReadDeadline(time.Now().Add(readIdleTimeout)); err != nil {
			return
		}
		env, err := readEnvelope(p.conn)
		if err != nil {
			return
		}
		p.touch()
		if err := s.dispatch(p, env); err != nil {
			s.log.Debug("network: dispatch error", zap.String("addr", p.Address), zap.String("cmd", env.Command.String()), zap.Error(err))
		}
		select {
		case <-p.closed:
			return
		case <-s.stop:
			return
		default:
		}
	}
}

func (s *Server) reissueGetData(invType payload.InventoryType, hash util.Uint256, exclude map[string]bool) string {
	peers := s.Peers()
	mathrand.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })
	for _, p := range peers {
		if exclude[p.Address] {
			continue
		}
		inv := &payload.Inventory{Type: invType, Hashes: []util.Uint256{hash}}
		s.sendAsync(p, payload.CmdGetData, inv)
		return p.Address
	}
	return ""
}

func (s *Server) sendAsync(p *Peer, cmd payload.Command, body io.Serializable) {
	w := binWriter()
	if body != nil {
		body.EncodeBinary(w)
	}
	env, err := payload.NewEnvelope(uint32(s.proto.Magic), cmd, w.Bytes(), !p.Version().HasCapability(payload.CapDisableCompression))
	if err != nil {
		return
	}
	p.Send(env)
}

// Broadcast relays body under cmd to a random AnnounceFanout subset of
// connected peers, excluding exclude (the peer a message was received
// from, if any).
func (s *Server) Broadcast(cmd payload.Command, body io.Serializable, exclude *Peer) {
	peers := s.Peers()
	mathrand.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })
	n := 0
	for _, p := range peers {
		if p == exclude {
			continue
		}
		s.sendAsync(p, cmd, body)
		n++
		if n >= AnnounceFanout {
			break
		}
	}
}
