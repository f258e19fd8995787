// Package health aggregates watcher liveness and serves it over HTTP.
package health

import (
	"sync"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// Status represents the health of one chain watcher.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Consecutive poll failures before a chain is degraded / critical.
const (
	degradedThreshold = 3
	criticalThreshold = 10
)

// ChainHealth is the externally visible state of one watcher.
type ChainHealth struct {
	ChainID             string    `json:"chain_id"`
	Name                string    `json:"name"`
	Status              Status    `json:"status"`
	LastPollAt          time.Time `json:"last_poll_at"`
	LastEventAt         time.Time `json:"last_event_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	InBackoff           bool      `json:"in_backoff"`
}

type chainState struct {
	name                string
	lastPollAt          time.Time
	lastEventAt         time.Time
	consecutiveFailures int
	inBackoff           bool
}

// Monitor tracks per-chain watcher status. Watchers report into it from
// their own goroutines; reads come from the HTTP server.
type Monitor struct {
	mu     sync.RWMutex
	chains map[domain.ChainID]*chainState
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{chains: make(map[domain.ChainID]*chainState)}
}

// Register adds a chain before its watcher starts.
func (m *Monitor) Register(chainID domain.ChainID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[chainID] = &chainState{name: chainID.Name()}
}

// RecordPollSuccess marks a completed poll and clears the failure streak.
func (m *Monitor) RecordPollSuccess(chainID domain.ChainID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.chains[chainID]; ok {
		s.lastPollAt = time.Now()
		s.consecutiveFailures = 0
		s.inBackoff = false
	}
}

// RecordPollFailure marks a failed poll; the watcher is now backing off.
func (m *Monitor) RecordPollFailure(chainID domain.ChainID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.chains[chainID]; ok {
		s.lastPollAt = time.Now()
		s.consecutiveFailures++
		s.inBackoff = true
	}
}

// RecordEvent marks a published deposit event.
func (m *Monitor) RecordEvent(chainID domain.ChainID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.chains[chainID]; ok {
		s.lastEventAt = time.Now()
	}
}

// CheckHealth returns a snapshot of all chains.
func (m *Monitor) CheckHealth() map[string]ChainHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := make(map[string]ChainHealth, len(m.chains))
	for id, s := range m.chains {
		status := StatusHealthy
		switch {
		case s.consecutiveFailures >= criticalThreshold:
			status = StatusCritical
		case s.consecutiveFailures >= degradedThreshold:
			status = StatusDegraded
		}

		report[id.String()] = ChainHealth{
			ChainID:             id.String(),
			Name:                s.name,
			Status:              status,
			LastPollAt:          s.lastPollAt,
			LastEventAt:         s.lastEventAt,
			ConsecutiveFailures: s.consecutiveFailures,
			InBackoff:           s.inBackoff,
		}
	}
	return report
}
