package reconciler

import (
	"sync"
	"time"

	"github.com/jirenius/modapp/pkg/logging"
)

// Metrics tracks what configuration reloads did.
type Metrics struct {
	mu sync.RWMutex

	reloads        int64
	reloadFailures int64
	activations    int64
	deactivations  int64
	actionFailures int64

	lastReloadAt  time.Time
	lastFailureAt time.Time

	now func() time.Time
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{now: time.Now}
}

// RecordReload records a reload attempt and whether the file could be loaded.
func (m *Metrics) RecordReload(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reloads++
	m.lastReloadAt = m.now()
	if err != nil {
		m.reloadFailures++
		m.lastFailureAt = m.lastReloadAt
		logging.Warn("Reconciler", "Configuration reload failed (failures: %d): %v", m.reloadFailures, err)
	}
}

// RecordAction records the outcome of one action.
func (m *Metrics) RecordAction(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.Err != nil {
		m.actionFailures++
		m.lastFailureAt = m.now()
		return
	}
	switch a.Type {
	case ActionActivate:
		m.activations++
	case ActionDeactivate:
		m.deactivations++
	}
}

// MetricsSummary is a read-only view of Metrics.
type MetricsSummary struct {
	Reloads           int64     `json:"reloads" yaml:"reloads"`
	ReloadFailures    int64     `json:"reload_failures" yaml:"reload_failures"`
	Activations       int64     `json:"activations" yaml:"activations"`
	Deactivations     int64     `json:"deactivations" yaml:"deactivations"`
	ActionFailures    int64     `json:"action_failures" yaml:"action_failures"`
	LastReloadAt      time.Time `json:"last_reload_at,omitempty" yaml:"last_reload_at,omitempty"`
	LastFailureAt     time.Time `json:"last_failure_at,omitempty" yaml:"last_failure_at,omitempty"`
	ReloadFailureRate float64   `json:"reload_failure_rate" yaml:"reload_failure_rate"`
}

// Summary returns a snapshot of the counters.
func (m *Metrics) Summary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSummary{
		Reloads:        m.reloads,
		ReloadFailures: m.reloadFailures,
		Activations:    m.activations,
		Deactivations:  m.deactivations,
		ActionFailures: m.actionFailures,
		LastReloadAt:   m.lastReloadAt,
		LastFailureAt:  m.lastFailureAt,
	}
	if m.reloads > 0 {
		s.ReloadFailureRate = float64(m.reloadFailures) / float64(m.reloads)
	}
	return s
}
