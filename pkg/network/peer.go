package network

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/n3-core/node/pkg/network/payload"
)

// Stats is a per-peer counter block (spec §4.K "Peer manager"),
// updated atomically so readers never take the peer's write lock.
type Stats struct {
	BytesIn      int64
	BytesOut     int64
	MessagesIn   int64
	MessagesOut  int64
}

// Peer is one established P2P connection: its negotiated identity,
// running stats and outbound send queue.
type Peer struct {
	conn net.Conn
	log  *zap.Logger

	Address        string
	ConnectedSince time.Time
	Outbound       bool

	versionMu sync.RWMutex
	version   *payload.Version

	Stats Stats

	lastSeen        atomic.Int64 // unix seconds
	misbehavior     atomic.Int32
	latencyMS       atomic.Int64
	pendingPingNonce atomic.Uint32

	sendCh chan *payload.Envelope
	closed chan struct{}
	once   sync.Once
}

// MisbehaviorBanThreshold is the cumulative misbehavior score at which
// AddMisbehavior disconnects a peer (spec §4.K "Peer manager"). No ban
// is recorded for the peer's address, so it can connect again.
const MisbehaviorBanThreshold = 100

// newPeer wraps an already-connected net.Conn.
func newPeer(conn net.Conn, outbound bool, log *zap.Logger) *Peer {
	p := &Peer{
		conn:           conn,
		log:            log,
		Address:        conn.RemoteAddr().String(),
		ConnectedSince: time.Now(),
		Outbound:       outbound,
		sendCh:         make(chan *payload.Envelope, 256),
		closed:         make(chan struct{}),
	}
	p.lastSeen.Store(time.Now().Unix())
	return p
}

// Version returns the peer's handshake payload, or nil before it completes.
func (p *Peer) Version() *payload.Version {
	p.versionMu.RLock()
	defer p.versionMu.RUnlock()
	return p.version
}

func (p *Peer) setVersion(v *payload.Version) {
	p.versionMu.Lock()
	p.version = v
	p.versionMu.Unlock()
}

// LastSeen reports the last time any message was received from this peer.
func (p *Peer) LastSeen() time.Time { return time.Unix(p.lastSeen.Load(), 0) }

// Misbehavior returns the peer's accumulated misbehavior score.
func (p *Peer) Misbehavior() int32 { return p.misbehavior.Load() }

// AddMisbehavior increases the peer's misbehavior score by delta; once
// the score reaches MisbehaviorBanThreshold it closes the connection and
// reports true.
func (p *Peer) AddMisbehavior(delta int32, reason string) bool {
	score := p.misbehavior.Add(delta)
	p.log.Debug("peer: misbehavior", zap.String("addr", p.Address), zap.String("reason", reason), zap.Int32("score", score))
	if score >= MisbehaviorBanThreshold {
		p.Close()
		return true
	}
	return false
}

// Send queues env for writing; it never blocks the caller beyond the
// channel's buffer — a full queue means the peer is too slow and gets
// disconnected.
func (p *Peer) Send(env *payload.Envelope) {
	select {
	case p.sendCh <- env:
	case <-p.closed:
	default:
		p.log.Warn("peer: send queue full, disconnecting", zap.String("addr", p.Address))
		p.Close()
	}
}

// Close disconnects the peer exactly once.
func (p *Peer) Close() {
	p.once.Do(func() {
		close(p.closed)
		_ = p.conn.Close()
	})
}

// Done is closed once the peer has disconnected.
func (p *Peer) Done() <-chan struct{} { return p.closed }

func (p *Peer) writeLoop() {
	for {
		select {
		case env := <-p.sendCh:
			if err := p.writeEnvelope(env); err != nil {
				p.log.Debug("peer: write failed", zap.String("addr", p.Address), zap.Error(err))
				p.Close()
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (p *Peer) writeEnvelope(env *payload.Envelope) error {
	w := binWriter()
	env.EncodeBinary(w)
	if w.Err != nil {
		return w.Err
	}
	b := w.Bytes()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	n, err := p.conn.Write(b)
	if err != nil {
		return err
	}
	atomic.AddInt64(&p.Stats.BytesOut, int64(n))
	atomic.AddInt64(&p.Stats.MessagesOut, 1)
	return nil
}

func (p *Peer) touch() {
	p.lastSeen.Store(time.Now().Unix())
	atomic.AddInt64(&p.Stats.MessagesIn, 1)
}

// String implements fmt.Stringer for log fields.
func (p *Peer) String() string {
	return fmt.Sprintf("%s(out=%v)", p.Address, p.Outbound)
}
