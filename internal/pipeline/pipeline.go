// Package pipeline is the single consumer of the shared event channel. It
// runs each deposit through validate, enrich, relay-action and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/bridge-listener/internal/core/domain"
	"github.com/vietddude/bridge-listener/internal/core/retry"
	"github.com/vietddude/bridge-listener/internal/infra/monitor"
	"github.com/vietddude/bridge-listener/internal/infra/oracle"
	"github.com/vietddude/bridge-listener/internal/infra/quorum"
	"github.com/vietddude/bridge-listener/internal/metrics"
)

// Config wires the pipeline to its channel and external capabilities.
type Config struct {
	Events <-chan *domain.DepositEvent
	Oracle oracle.Oracle
	Quorum quorum.Requester
	Sink   monitor.Sink

	// TokenDecimals per source chain; chains not listed default to 6.
	TokenDecimals map[domain.ChainID]int

	EnrichRetry retry.Config
	QuorumRetry retry.Config
	ReportRetry retry.Config
}

// Pipeline processes one event at a time, end to end. Sequential
// consumption is what preserves per-chain ordering; there is no lock.
type Pipeline struct {
	cfg     Config
	running atomic.Bool
	done    chan struct{}
	log     *slog.Logger
}

// New creates a pipeline. Zero-valued retry configs get stage defaults.
func New(cfg Config) *Pipeline {
	if cfg.EnrichRetry.MaxAttempts == 0 {
		cfg.EnrichRetry = retry.Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
	}
	if cfg.QuorumRetry.MaxAttempts == 0 {
		cfg.QuorumRetry = retry.Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
	}
	if cfg.ReportRetry.MaxAttempts == 0 {
		cfg.ReportRetry = retry.Config{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
	}
	return &Pipeline{
		cfg:  cfg,
		done: make(chan struct{}),
		log:  slog.Default().With("component", "pipeline"),
	}
}

// Run drains the channel until it is closed, then returns. Cancellation is
// observed inside the stages (external calls), not at the channel receive:
// events already accepted must finish processing during shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already running")
	}
	defer p.running.Store(false)
	defer close(p.done)

	p.log.Info("Pipeline started")
	for ev := range p.cfg.Events {
		metrics.ChannelDepth.Set(float64(len(p.cfg.Events)))
		p.Process(ctx, ev)
	}
	p.log.Info("Pipeline drained")
	return nil
}

// Done is closed once the pipeline has fully drained.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Process runs all four stages for one event. Per-event failures are
// contained here; nothing escalates out of the loop.
func (p *Pipeline) Process(ctx context.Context, ev *domain.DepositEvent) {
	log := p.log.With("chain", ev.SourceChainID.String(), "nonce", ev.Nonce, "tx", ev.TxHash)

	// 1. Validate
	if err := ev.Validate(); err != nil {
		metrics.EventsDropped.WithLabelValues(ev.SourceChainID.String(), dropReason(err)).Inc()
		log.Warn("Dropping invalid event", "error", err)
		return
	}

	// 2. Enrich (best-effort)
	enriched := p.enrich(ctx, ev, log)

	// 3. Relay action
	action := p.relayAction(ctx, &enriched, log)

	// 4. Report
	p.report(ctx, &enriched, action, log)

	status := domain.ReportStatusProcessed
	if action.QuorumStatus != domain.QuorumObtained {
		status = domain.ReportStatusRelayFailed
	}
	metrics.EventsProcessed.WithLabelValues(ev.SourceChainID.String(), status).Inc()
	log.Info("Event processed", "quorum", action.QuorumStatus, "status", status)
}

// enrich attaches a USD estimate. On failure the event proceeds without
// one; enrichment never blocks the relay.
func (p *Pipeline) enrich(ctx context.Context, ev *domain.DepositEvent, log *slog.Logger) domain.EnrichedEvent {
	timer := time.Now()
	defer func() { metrics.StageLatency.WithLabelValues("enrich").Observe(time.Since(timer).Seconds()) }()

	var price float64
	err := retry.Do(ctx, p.cfg.EnrichRetry, func(ctx context.Context) error {
		var err error
		price, err = p.cfg.Oracle.GetPrice(ctx, ev.TokenAddress)
		return err
	})
	if err != nil {
		metrics.StageFailures.WithLabelValues(ev.SourceChainID.String(), "enrich").Inc()
		log.Warn("Enrichment failed, proceeding without estimate", "error", err)
		return domain.EnrichedEvent{DepositEvent: *ev}
	}

	value := domain.USDValue(ev.Amount, p.decimals(ev.SourceChainID), price)
	log.Debug("Event enriched", "value_usd", value)
	return domain.EnrichedEvent{DepositEvent: *ev, EstimatedUSDValue: &value}
}

// relayAction computes the message hash and collects the quorum outcome
// with bounded retries. Exhaustion surfaces as a processing failure, never
// as a crash.
func (p *Pipeline) relayAction(ctx context.Context, ev *domain.EnrichedEvent, log *slog.Logger) domain.RelayAction {
	timer := time.Now()
	defer func() { metrics.StageLatency.WithLabelValues("relay").Observe(time.Since(timer).Seconds()) }()

	hash := domain.MessageHash(&ev.DepositEvent)
	log.Debug("Requesting signatures", "message_hash", hash)

	result := domain.QuorumPending
	err := retry.Do(ctx, p.cfg.QuorumRetry, func(ctx context.Context) error {
		status, err := p.cfg.Quorum.RequestSignatures(ctx, hash)
		if err != nil {
			if !quorum.Retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		result = status
		if status != domain.QuorumObtained {
			return fmt.Errorf("quorum %s for %s", status, hash)
		}
		return nil
	})
	if err != nil {
		if result == domain.QuorumPending {
			result = domain.QuorumFailed
		}
		metrics.StageFailures.WithLabelValues(ev.SourceChainID.String(), "relay").Inc()
		log.Error("Relay action failed", "message_hash", hash, "error", err)
	}

	metrics.QuorumResults.WithLabelValues(ev.SourceChainID.String(), string(result)).Inc()
	return domain.RelayAction{MessageHash: hash, QuorumStatus: result}
}

// report delivers the summary with bounded retries. Exhaustion is logged;
// earlier stages are never re-run.
func (p *Pipeline) report(ctx context.Context, ev *domain.EnrichedEvent, action domain.RelayAction, log *slog.Logger) {
	timer := time.Now()
	defer func() { metrics.StageLatency.WithLabelValues("report").Observe(time.Since(timer).Seconds()) }()

	status := domain.ReportStatusProcessed
	if action.QuorumStatus != domain.QuorumObtained {
		status = domain.ReportStatusRelayFailed
	}

	summary := domain.ReportSummary{
		ReportID:      uuid.New().String(),
		TxHash:        ev.TxHash,
		SourceChainID: ev.SourceChainID,
		DestChainID:   ev.DestinationChainID,
		Nonce:         ev.Nonce,
		Amount:        ev.Amount.String(),
		ValueUSD:      ev.EstimatedUSDValue,
		QuorumStatus:  action.QuorumStatus,
		Status:        status,
	}

	err := retry.Do(ctx, p.cfg.ReportRetry, func(ctx context.Context) error {
		return p.cfg.Sink.Report(ctx, summary)
	})
	if err != nil {
		metrics.StageFailures.WithLabelValues(ev.SourceChainID.String(), "report").Inc()
		log.Error("Reporting failed after retries", "report_id", summary.ReportID, "error", err)
	}
}

func (p *Pipeline) decimals(chainID domain.ChainID) int {
	if d, ok := p.cfg.TokenDecimals[chainID]; ok {
		return d
	}
	return 6
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNonPositiveAmount):
		return "non_positive_amount"
	case errors.Is(err, domain.ErrSameChain):
		return "same_chain"
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domain.ErrInvalidAddress):
		return "invalid_address"
	default:
		return "other"
	}
}
