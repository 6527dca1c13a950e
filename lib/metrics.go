package lib

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/* This file implements dev-ops telemetry for the node in the form of prometheus metrics */

const metricsPattern = "/metrics"

// Metrics represents a server that exposes Prometheus metrics
// All methods are safe to call on a nil *Metrics
type Metrics struct {
	server   *http.Server         // the http prometheus server
	config   MetricsConfig        // the configuration
	registry *prometheus.Registry // the collectors of this node
	log      LoggerI              // the logger

	ChainMetrics     // block production telemetry
	LifecycleMetrics // validator lifecycle telemetry
	AdmissionMetrics // transaction admission telemetry
}

// ChainMetrics represents the telemetry of the regtest chain
type ChainMetrics struct {
	Height              prometheus.Gauge     // what's the tip height?
	BlockProcessingTime prometheus.Histogram // how long does it take to connect a block?
	Disconnects         prometheus.Counter   // how many blocks were disconnected?
	SignedBlocks        prometheus.Counter   // how many blocks carried a validator signature?
}

// LifecycleMetrics represents the telemetry of the governance ledgers
type LifecycleMetrics struct {
	Phase                prometheus.Gauge // the phase of the next block (0: Dormant ... 5: Settled)
	BlocksUntilNext      prometheus.Gauge // blocks until the next phase transition
	RegisteredCandidates prometheus.Gauge // confirmed candidacies
	ConfirmedVotes       prometheus.Gauge // confirmed vote records
	ActiveValidators     prometheus.Gauge // members of the active set at the tip
	PendingFacts         prometheus.Gauge // pending candidacies and votes
}

// AdmissionMetrics represents the telemetry of the transaction admission
type AdmissionMetrics struct {
	Admitted *prometheus.CounterVec // admitted transactions by type
	Rejected *prometheus.CounterVec // rejected transactions by type and reason
}

// NewMetricsServer() creates a new telemetry server
func NewMetricsServer(config MetricsConfig, log LoggerI) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	mux := http.NewServeMux()
	mux.Handle(metricsPattern, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &Metrics{
		server:   &http.Server{Addr: config.PrometheusAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		config:   config,
		registry: registry,
		log:      log,
		ChainMetrics: ChainMetrics{
			Height: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_chain_height",
				Help: "Current tip height",
			}),
			BlockProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
				Name: "mnv_block_processing_time",
				Help: "Time to connect a block in seconds",
			}),
			Disconnects: factory.NewCounter(prometheus.CounterOpts{
				Name: "mnv_block_disconnects",
				Help: "Total number of disconnected blocks",
			}),
			SignedBlocks: factory.NewCounter(prometheus.CounterOpts{
				Name: "mnv_validator_signed_blocks",
				Help: "Total number of blocks carrying a validator signature",
			}),
		},
		LifecycleMetrics: LifecycleMetrics{
			Phase: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_phase",
				Help: "Phase of the next block (0: Dormant, 1: RegistrationOpen, 2: RegistrationClosed, 3: VotingOpen, 4: VotingClosed, 5: Settled)",
			}),
			BlocksUntilNext: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_phase_blocks_remaining",
				Help: "Blocks until the next phase transition",
			}),
			RegisteredCandidates: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_registered_candidates",
				Help: "Number of confirmed candidacies",
			}),
			ConfirmedVotes: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_confirmed_votes",
				Help: "Number of confirmed vote records",
			}),
			ActiveValidators: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_active_validators",
				Help: "Number of active validators at the tip",
			}),
			PendingFacts: factory.NewGauge(prometheus.GaugeOpts{
				Name: "mnv_pending_facts",
				Help: "Number of pending candidacies and vote records",
			}),
		},
		AdmissionMetrics: AdmissionMetrics{
			Admitted: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "mnv_tx_admitted",
				Help: "Number of admitted validator transactions",
			}, []string{"type"}),
			Rejected: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "mnv_tx_rejected",
				Help: "Number of rejected validator transactions",
			}, []string{"type", "code"}),
		},
	}
}

// Start() starts the telemetry server
func (m *Metrics) Start() {
	// exit if empty
	if m == nil || !m.config.Enabled {
		return
	}
	go func() {
		m.log.Infof("Starting metrics server on %s", m.config.PrometheusAddress)
		// run the server
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.Errorf("Metrics server failed with err: %s", err.Error())
		}
	}()
}

// Stop() gracefully stops the telemetry server
func (m *Metrics) Stop() {
	// exit if empty
	if m == nil || !m.config.Enabled {
		return
	}
	// shutdown the server
	if err := m.server.Shutdown(context.Background()); err != nil {
		m.log.Error(err.Error())
	}
}

// Registry() exposes the collectors, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// UpdateChainMetrics() records a connected block
func (m *Metrics) UpdateChainMetrics(height uint64, signed bool, duration time.Duration) {
	// exit if empty
	if m == nil {
		return
	}
	m.Height.Set(float64(height))
	m.BlockProcessingTime.Observe(duration.Seconds())
	if signed {
		m.SignedBlocks.Inc()
	}
}

// UpdateDisconnect() records a disconnected block
func (m *Metrics) UpdateDisconnect(newHeight uint64) {
	// exit if empty
	if m == nil {
		return
	}
	m.Height.Set(float64(newHeight))
	m.Disconnects.Inc()
}

// UpdateLifecycleMetrics() is a setter for the governance ledger metrics
func (m *Metrics) UpdateLifecycleMetrics(phase int, blocksUntilNext uint64, candidates, votes, active, pending int) {
	// exit if empty
	if m == nil {
		return
	}
	m.Phase.Set(float64(phase))
	m.BlocksUntilNext.Set(float64(blocksUntilNext))
	m.RegisteredCandidates.Set(float64(candidates))
	m.ConfirmedVotes.Set(float64(votes))
	m.ActiveValidators.Set(float64(active))
	m.PendingFacts.Set(float64(pending))
}

// RecordAdmission() counts an admission attempt; a nil error means admitted
func (m *Metrics) RecordAdmission(txType string, err ErrorI) {
	// exit if empty
	if m == nil {
		return
	}
	if err == nil {
		m.Admitted.WithLabelValues(txType).Inc()
		return
	}
	m.Rejected.WithLabelValues(txType, string(err.Module())+"/"+strconv.FormatUint(uint64(err.Code()), 10)).Inc()
}
