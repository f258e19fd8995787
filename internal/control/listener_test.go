package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/config"
	"github.com/vietddude/bridge-listener/internal/core/domain"
)

type stubOracle struct{}

func (stubOracle) GetPrice(ctx context.Context, token string) (float64, error) {
	return 1.0, nil
}

type stubQuorum struct{}

func (stubQuorum) RequestSignatures(ctx context.Context, hash string) (domain.QuorumStatus, error) {
	return domain.QuorumObtained, nil
}

type stubSink struct {
	mu      sync.Mutex
	reports []domain.ReportSummary
}

func (s *stubSink) Report(ctx context.Context, summary domain.ReportSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, summary)
	return nil
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func (s *stubSink) all() []domain.ReportSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ReportSummary, len(s.reports))
	copy(out, s.reports)
	return out
}

func simulatedConfig(sink *stubSink) Config {
	return Config{
		Port: 0,
		Chains: []config.ChainConfig{
			{
				ChainID:            domain.ChainIDEthereum,
				Type:               "simulated",
				PollInterval:       time.Millisecond,
				MaxBackoff:         10 * time.Millisecond,
				DestinationChainID: domain.ChainIDPolygon,
				TokenDecimals:      6,
			},
		},
		Channel:     config.ChannelConfig{Buffer: 8},
		PriceOracle: stubOracle{},
		Coordinator: stubQuorum{},
		Sink:        sink,
	}
}

func TestListener_Lifecycle(t *testing.T) {
	sink := &stubSink{}
	l, err := NewListener(simulatedConfig(sink))
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for sink.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for reports, got %d", sink.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Intake stopped: no reports arrive after Stop returns.
	count := sink.count()
	time.Sleep(50 * time.Millisecond)
	if sink.count() != count {
		t.Errorf("reports kept arriving after Stop: %d -> %d", count, sink.count())
	}

	// Simulated nonces are monotonic, so delivery order is checkable.
	var last uint64
	for _, r := range sink.all() {
		if r.Nonce <= last {
			t.Fatalf("reports out of order: nonce %d after %d", r.Nonce, last)
		}
		last = r.Nonce
	}
}

func TestListener_StartTwiceRejected(t *testing.T) {
	sink := &stubSink{}
	l, err := NewListener(simulatedConfig(sink))
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := l.Start(context.Background()); err == nil {
		t.Error("expected second Start to fail")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestListener_StopTwice(t *testing.T) {
	sink := &stubSink{}
	l, err := NewListener(simulatedConfig(sink))
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Stop(stopCtx); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}

	// A second Stop must be a no-op, not a panic on the closed channel.
	if err := l.Stop(stopCtx); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestListener_StopBeforeStart(t *testing.T) {
	sink := &stubSink{}
	l, err := NewListener(simulatedConfig(sink))
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}
	if err := l.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
}

func TestNewListener_UnknownChainType(t *testing.T) {
	cfg := simulatedConfig(&stubSink{})
	cfg.Chains[0].Type = "solana"
	if _, err := NewListener(cfg); err == nil {
		t.Error("expected error for unknown chain type")
	}
}
