package consensus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/metrics"
	"github.com/n3-core/node/pkg/util"
)

var errInvalidSignature = errors.New("consensus: payload signature does not match its validator")

// Runner drives a Service's Mealy machine against wall-clock timers and
// the network, turning its pure (state, event) -> (state, [outputs])
// transitions into a running background service. Grounded on the
// teacher's pkg/consensus/watchdog.go goroutine-plus-timer-channel event
// loop; Service itself stays free of time.Timer and net.Conn so its
// transition logic can be exercised deterministically in tests.
type Runner struct {
	svc *Service
	log *zap.Logger

	// Broadcast sends an outbound consensus Payload to the network
	// (network.Server.Broadcast wrapped as CmdConsensus, supplied by the
	// caller so this package never imports network).
	Broadcast func(*Payload)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	// recoveryAttempts tags in-flight recovery requests with a local
	// correlation id for log correlation; it never reaches the wire.
	recoveryAttempts map[uuid.UUID]time.Time
}

// NewRunner wraps svc. broadcast must not block.
func NewRunner(svc *Service, broadcast func(*Payload), log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		svc:              svc,
		log:              log,
		Broadcast:        broadcast,
		recoveryAttempts: make(map[uuid.UUID]time.Time),
	}
}

// StartRound begins consensus at blockIndex and arms the phase timer
// (spec §4.J phase 1 "Initial").
func (r *Runner) StartRound(blockIndex uint32, prevHash util.Uint256, prevTimestamp uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.svc.Start(blockIndex, prevHash, prevTimestamp)
	r.emit(out)
	r.reportMetrics()
	r.armTimerLocked()
}

// HandlePayload implements network.ConsensusDispatcher: it decodes raw
// into a Payload, verifies its signature, and feeds it to the Service,
// rearming the phase timer since every valid message can advance the
// round (spec §4.J "Messages").
func (r *Runner) HandlePayload(raw []byte) error {
	p := new(Payload)
	br := io.NewBinReaderFromBuf(raw)
	p.DecodeBinary(br)
	if br.Err != nil {
		return br.Err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.svc.Verify(p) {
		return errInvalidSignature
	}
	if p.Type == RecoveryRequestType {
		id := uuid.New()
		r.recoveryAttempts[id] = time.Now()
		r.log.Debug("consensus: recovery request received", zap.String("correlation_id", id.String()))
	}
	out, err := r.svc.OnPayload(p)
	if err != nil {
		return err
	}
	r.emit(out)
	r.reportMetrics()
	r.armTimerLocked()
	return nil
}

// Stop disarms the phase timer so no further transitions fire. Safe to
// call even if StartRound was never called.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}

// emit broadcasts every output payload produced by a Service transition.
// Must be called with mu held.
func (r *Runner) emit(out []*Payload) {
	for _, p := range out {
		if r.Broadcast != nil {
			r.Broadcast(p)
		}
	}
}

func (r *Runner) reportMetrics() {
	metrics.SetConsensusPhase(int(r.svc.Phase()))
	metrics.SetConsensusView(r.svc.View())
}

// armTimerLocked (re)schedules the phase timer using the doubling
// per-view backoff dBFT specifies: TimePerBlock * 2^(view+1), capped at
// MaxTimePerBlock (spec §4.J "Cancellation & timing"). Must be called
// with mu held.
func (r *Runner) armTimerLocked() {
	if r.stopped {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	blockIndex := r.svc.BlockIndex()
	view := r.svc.View()

	d := r.svc.cfg.TimePerBlock << (view + 1)
	if r.svc.cfg.MaxTimePerBlock > 0 && d > r.svc.cfg.MaxTimePerBlock {
		d = r.svc.cfg.MaxTimePerBlock
	}

	r.timer = time.AfterFunc(d, func() { r.onTimerFired(blockIndex, view) })
}

func (r *Runner) onTimerFired(blockIndex uint32, view byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	out := r.svc.OnTimer(blockIndex, view)
	r.emit(out)
	r.reportMetrics()
	r.armTimerLocked()
}
