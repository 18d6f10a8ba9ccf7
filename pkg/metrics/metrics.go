// Package metrics exposes the node's Prometheus gauges: chain height,
// mempool size, peer count and consensus phase (spec §4 ambient
// "Observability"), grounded on the teacher's pkg/consensus/prometheus.go
// gauge-per-signal pattern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	blockHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3core",
		Name:      "block_height",
		Help:      "Index of the most recently persisted block.",
	})
	mempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3core",
		Name:      "mempool_size",
		Help:      "Number of transactions currently held in the mempool.",
	})
	peerCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3core",
		Name:      "peer_count",
		Help:      "Number of connected P2P peers.",
	})
	consensusPhase = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3core",
		Name:      "consensus_phase",
		Help:      "Current dBFT phase of the local round, as a small ordinal (0=Initial..4=BlockSent).",
	})
	consensusView = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3core",
		Name:      "consensus_view",
		Help:      "Current dBFT view number of the local round.",
	})
)

func init() {
	prometheus.MustRegister(blockHeight, mempoolSize, peerCount, consensusPhase, consensusView)
}

// SetBlockHeight updates the block_height gauge.
func SetBlockHeight(h uint32) { blockHeight.Set(float64(h)) }

// SetMempoolSize updates the mempool_size gauge.
func SetMempoolSize(n int) { mempoolSize.Set(float64(n)) }

// SetPeerCount updates the peer_count gauge.
func SetPeerCount(n int) { peerCount.Set(float64(n)) }

// SetConsensusPhase updates the consensus_phase gauge.
func SetConsensusPhase(phase int) { consensusPhase.Set(float64(phase)) }

// SetConsensusView updates the consensus_view gauge.
func SetConsensusView(view byte) { consensusView.Set(float64(view)) }
