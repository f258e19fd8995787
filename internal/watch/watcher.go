// Package watch runs the per-chain polling loops that feed the pipeline.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
	"github.com/vietddude/bridge-listener/internal/health"
	"github.com/vietddude/bridge-listener/internal/infra/source"
	"github.com/vietddude/bridge-listener/internal/metrics"
)

// Config wires one watcher to its source and the shared channel.
type Config struct {
	ChainID      domain.ChainID
	Source       source.Source
	Out          chan<- *domain.DepositEvent
	PollInterval time.Duration
	MaxBackoff   time.Duration
	Monitor      *health.Monitor
}

// Watcher polls one chain's event source and publishes discovered deposits
// to the shared channel. It shares no mutable state with other watchers.
type Watcher struct {
	cfg Config
	log *slog.Logger
}

// New creates a watcher for one chain.
func New(cfg Config) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 60 * time.Second
	}
	return &Watcher{
		cfg: cfg,
		log: slog.Default().With("chain", cfg.ChainID.String()),
	}
}

// Run loops until ctx is cancelled. Transient poll failures back off
// exponentially up to MaxBackoff and never terminate the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("Watcher started", "interval", w.cfg.PollInterval)

	failures := 0
	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watcher stopped")
			return nil
		case <-timer.C:
		}

		ev, err := w.cfg.Source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("Watcher stopped")
				return nil
			}
			failures++
			metrics.PollErrors.WithLabelValues(w.cfg.ChainID.String()).Inc()
			w.cfg.Monitor.RecordPollFailure(w.cfg.ChainID)

			delay := w.backoff(failures)
			w.log.Warn("Poll failed, backing off", "error", err, "failures", failures, "delay", delay)
			timer.Reset(delay)
			continue
		}

		failures = 0
		w.cfg.Monitor.RecordPollSuccess(w.cfg.ChainID)

		if ev != nil {
			if ev.DetectedAt.IsZero() {
				ev.DetectedAt = time.Now()
			}
			if !w.publish(ctx, ev) {
				return nil
			}
			// Ownership transferred: ev belongs to the pipeline now.
			metrics.EventsDetected.WithLabelValues(w.cfg.ChainID.String()).Inc()
			w.cfg.Monitor.RecordEvent(w.cfg.ChainID)
			w.log.Info("Deposit detected", "tx", ev.TxHash, "nonce", ev.Nonce)
		}

		timer.Reset(w.cfg.PollInterval)
	}
}

// publish blocks until the channel accepts the event or ctx is cancelled.
// The fast path avoids the cancellation race so an already-polled event
// reaches the pipeline whenever capacity exists.
func (w *Watcher) publish(ctx context.Context, ev *domain.DepositEvent) bool {
	select {
	case w.cfg.Out <- ev:
		return true
	default:
	}

	select {
	case w.cfg.Out <- ev:
		return true
	case <-ctx.Done():
		w.log.Warn("Shutdown while publish blocked on full channel", "tx", ev.TxHash, "nonce", ev.Nonce)
		return false
	}
}

// backoff doubles the poll interval per consecutive failure, capped.
func (w *Watcher) backoff(failures int) time.Duration {
	delay := w.cfg.PollInterval
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= w.cfg.MaxBackoff {
			return w.cfg.MaxBackoff
		}
	}
	if delay > w.cfg.MaxBackoff {
		return w.cfg.MaxBackoff
	}
	return delay
}
