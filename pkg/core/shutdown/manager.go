// Package shutdown coordinates the node's graceful-exit sequence: RPC
// and P2P listeners stop accepting new work before the block processor
// and its store are closed, each stage bounded by its own timeout.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Stage is one named unit of teardown work, run in Priority order
// (lower first) when shutdown executes.
type Stage struct {
	Name     string
	Priority int
	Timeout  time.Duration
	Run      func() error
}

const defaultStageTimeout = 30 * time.Second

// Manager runs registered Stages once, in priority order, the first
// time Shutdown (or a caught signal) fires.
type Manager struct {
	log *zap.Logger

	mu       sync.Mutex
	stages   []Stage
	once     sync.Once
	done     chan struct{}
}

// NewManager constructs a Manager that logs through log.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{log: log, done: make(chan struct{})}
}

// Register adds a teardown stage. A zero Timeout gets defaultStageTimeout.
func (m *Manager) Register(name string, priority int, timeout time.Duration, run func() error) {
	if timeout == 0 {
		timeout = defaultStageTimeout
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, Stage{Name: name, Priority: priority, Timeout: timeout, Run: run})
	sort.SliceStable(m.stages, func(i, j int) bool { return m.stages[i].Priority < m.stages[j].Priority })
}

// Shutdown runs every registered stage exactly once, in priority order.
// A stage that doesn't return within its timeout is logged and skipped
// rather than blocking the remaining stages.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		defer close(m.done)
		m.mu.Lock()
		stages := append([]Stage(nil), m.stages...)
		m.mu.Unlock()

		m.log.Info("shutdown: starting graceful sequence", zap.Int("stages", len(stages)))
		start := time.Now()
		for _, s := range stages {
			m.runStage(s)
		}
		m.log.Info("shutdown: sequence complete", zap.Duration("elapsed", time.Since(start)))
	})
}

func (m *Manager) runStage(s Stage) {
	result := make(chan error, 1)
	go func() {
		result <- s.Run()
	}()
	select {
	case err := <-result:
		if err != nil {
			m.log.Warn("shutdown: stage returned error", zap.String("stage", s.Name), zap.Error(err))
			return
		}
		m.log.Info("shutdown: stage complete", zap.String("stage", s.Name))
	case <-time.After(s.Timeout):
		m.log.Warn("shutdown: stage timed out, continuing", zap.String("stage", s.Name), zap.Duration("timeout", s.Timeout))
	}
}

// Done is closed once Shutdown has finished running every stage.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Context returns a context cancelled on SIGINT/SIGTERM or ctx's own
// parent cancellation, and arranges for Shutdown to be invoked (once)
// when that happens.
func (m *Manager) Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			m.log.Info("shutdown: signal received", zap.String("signal", sig.String()))
		case <-parent.Done():
		}
		cancel()
		m.Shutdown()
	}()
	return ctx
}
