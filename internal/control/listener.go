// Package control wires the listener together and owns its lifecycle:
// per-chain watchers feeding the shared channel, the pipeline draining it,
// and the health server on the side.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/bridge-listener/internal/core/config"
	"github.com/vietddude/bridge-listener/internal/core/domain"
	"github.com/vietddude/bridge-listener/internal/health"
	"github.com/vietddude/bridge-listener/internal/infra/monitor"
	"github.com/vietddude/bridge-listener/internal/infra/oracle"
	"github.com/vietddude/bridge-listener/internal/infra/quorum"
	redisclient "github.com/vietddude/bridge-listener/internal/infra/redis"
	"github.com/vietddude/bridge-listener/internal/infra/rpc"
	"github.com/vietddude/bridge-listener/internal/infra/source"
	"github.com/vietddude/bridge-listener/internal/pipeline"
	"github.com/vietddude/bridge-listener/internal/watch"
)

// Config holds the application configuration.
type Config struct {
	Port       int
	Chains     []config.ChainConfig
	Channel    config.ChannelConfig
	Oracle     config.OracleConfig
	Quorum     config.QuorumConfig
	Monitoring config.MonitorConfig
	Redis      config.RedisConfig

	// Capability overrides; nil means construct from the sections above.
	PriceOracle oracle.Oracle
	Coordinator quorum.Requester
	Sink        monitor.Sink
}

// Listener is the main application struct managing all components.
type Listener struct {
	cfg          Config
	events       chan *domain.DepositEvent
	watchers     []*watch.Watcher
	pipe         *pipeline.Pipeline
	healthMon    *health.Monitor
	healthServer *health.Server
	rpcClients   []*rpc.Client
	redisClient  *redisclient.Client
	grpcClient   *quorum.GRPCRequester
	log          *slog.Logger

	cancelWatchers context.CancelFunc
	cancelStages   context.CancelFunc
	group          *errgroup.Group
	stopped        atomic.Bool
}

// NewListener creates a listener with all dependencies initialized.
func NewListener(cfg Config) (*Listener, error) {
	buffer := cfg.Channel.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	l := &Listener{
		cfg:       cfg,
		events:    make(chan *domain.DepositEvent, buffer),
		healthMon: health.NewMonitor(),
		log:       slog.Default().With("component", "listener"),
	}

	// 1. Sources and watchers, one per configured chain.
	decimals := make(map[domain.ChainID]int, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		src, err := l.buildSource(chainCfg)
		if err != nil {
			return nil, err
		}

		l.healthMon.Register(chainCfg.ChainID)
		if chainCfg.TokenDecimals > 0 {
			decimals[chainCfg.ChainID] = chainCfg.TokenDecimals
		}

		l.watchers = append(l.watchers, watch.New(watch.Config{
			ChainID:      chainCfg.ChainID,
			Source:       src,
			Out:          l.events,
			PollInterval: chainCfg.PollInterval,
			MaxBackoff:   chainCfg.MaxBackoff,
			Monitor:      l.healthMon,
		}))
	}

	// 2. External capabilities.
	priceOracle := cfg.PriceOracle
	if priceOracle == nil {
		priceOracle = oracle.NewHTTPOracle(cfg.Oracle.URL, cfg.Oracle.AssetIDs, cfg.Oracle.Timeout)
		if cfg.Redis.URL != "" {
			redisClient, err := redisclient.NewClient(redisclient.Config{
				URL:      cfg.Redis.URL,
				Password: cfg.Redis.Password,
			})
			if err != nil {
				slog.Warn("Failed to connect to Redis, price cache disabled", "error", err)
			} else {
				l.redisClient = redisClient
				priceOracle = oracle.NewCachedOracle(priceOracle, redisClient, cfg.Oracle.CacheTTL)
			}
		}
	}

	coordinator := cfg.Coordinator
	if coordinator == nil {
		grpcClient, err := quorum.NewGRPCRequester(context.Background(), cfg.Quorum.Endpoint, cfg.Quorum.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to init coordinator client: %w", err)
		}
		l.grpcClient = grpcClient
		coordinator = grpcClient
	}

	sink := cfg.Sink
	if sink == nil {
		sink = monitor.NewHTTPSink(cfg.Monitoring.URL, cfg.Monitoring.Timeout)
	}

	// 3. The pipeline, sole consumer of the shared channel.
	l.pipe = pipeline.New(pipeline.Config{
		Events:        l.events,
		Oracle:        priceOracle,
		Quorum:        coordinator,
		Sink:          sink,
		TokenDecimals: decimals,
	})

	l.healthServer = health.NewServer(l.healthMon, cfg.Port)
	return l, nil
}

func (l *Listener) buildSource(chainCfg config.ChainConfig) (source.Source, error) {
	switch chainCfg.Type {
	case "simulated":
		seed := time.Now().UnixNano() + int64(chainCfg.ChainID)
		return source.NewSimulator(chainCfg.ChainID, chainCfg.DestinationChainID, 0, seed), nil
	case "evm", "":
		if len(chainCfg.Providers) == 0 {
			return nil, fmt.Errorf("chain %s: no providers configured", chainCfg.ChainID)
		}
		p := chainCfg.Providers[0]
		client := rpc.NewClient(p.Name, p.URL, 10*time.Second)
		l.rpcClients = append(l.rpcClients, client)
		return source.NewEVMSource(chainCfg.ChainID, chainCfg.BridgeContract, client), nil
	default:
		return nil, fmt.Errorf("chain %s: unknown type %q", chainCfg.ChainID, chainCfg.Type)
	}
}

// Start launches the health server, the pipeline and all watchers. It does
// not block; use Stop to shut down.
func (l *Listener) Start(ctx context.Context) error {
	if l.group != nil {
		return fmt.Errorf("listener already started")
	}

	go func() {
		if err := l.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error("Health server failed", "error", err)
		}
	}()

	// The pipeline context is detached from the parent on purpose: accepted
	// events must finish processing during shutdown. Stop hard-cancels it
	// only when the drain deadline passes.
	stageCtx, cancelStages := context.WithCancel(context.Background())
	l.cancelStages = cancelStages
	go func() {
		if err := l.pipe.Run(stageCtx); err != nil {
			l.log.Error("Pipeline failed", "error", err)
		}
	}()

	watchCtx, cancelWatchers := context.WithCancel(ctx)
	l.cancelWatchers = cancelWatchers

	g, gctx := errgroup.WithContext(watchCtx)
	for _, w := range l.watchers {
		g.Go(func() error { return w.Run(gctx) })
	}
	l.group = g

	l.log.Info("Listener started", "chains", len(l.watchers), "buffer", cap(l.events))
	return nil
}

// Stop shuts the listener down in order: intake first, then the drain,
// then the capabilities. ctx bounds the drain; once it expires, in-flight
// stages are cancelled instead of awaited. Repeated calls are no-ops.
func (l *Listener) Stop(ctx context.Context) error {
	if l.group == nil || !l.stopped.CompareAndSwap(false, true) {
		return nil
	}
	l.log.Info("Stopping listener...")

	// 1. Stop intake.
	l.cancelWatchers()
	if err := l.group.Wait(); err != nil {
		l.log.Warn("Watcher exited with error", "error", err)
	}

	// 2. No producers remain; the pipeline drains what was accepted.
	close(l.events)
	select {
	case <-l.pipe.Done():
	case <-ctx.Done():
		l.log.Warn("Drain deadline reached, aborting in-flight stages")
		l.cancelStages()
		<-l.pipe.Done()
	}
	l.cancelStages()

	// 3. Tear down capabilities.
	if l.grpcClient != nil {
		if err := l.grpcClient.Close(); err != nil {
			l.log.Warn("Failed to close coordinator connection", "error", err)
		}
	}
	if l.redisClient != nil {
		if err := l.redisClient.Close(); err != nil {
			l.log.Warn("Failed to close Redis", "error", err)
		}
	}
	for _, c := range l.rpcClients {
		_ = c.Close()
	}

	l.log.Info("Listener stopped")
	return l.healthServer.Stop(ctx)
}
