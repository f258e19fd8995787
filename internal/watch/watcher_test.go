package watch

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
	"github.com/vietddude/bridge-listener/internal/health"
)

// scriptedSource replays a fixed sequence of poll results.
type scriptedSource struct {
	mu      sync.Mutex
	chainID domain.ChainID
	results []pollResult
	polls   int
}

type pollResult struct {
	ev  *domain.DepositEvent
	err error
}

func (s *scriptedSource) ChainID() domain.ChainID { return s.chainID }

func (s *scriptedSource) Poll(ctx context.Context) (*domain.DepositEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.polls >= len(s.results) {
		s.polls++
		return nil, nil
	}
	r := s.results[s.polls]
	s.polls++
	return r.ev, r.err
}

func (s *scriptedSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func testEvent(nonce uint64) *domain.DepositEvent {
	return &domain.DepositEvent{
		TxHash:             "0xabc",
		SourceChainID:      domain.ChainIDEthereum,
		DestinationChainID: domain.ChainIDPolygon,
		Sender:             "0x7cB57B5A97eAbe94205C07890BE4c1aD31E486A8",
		Recipient:          "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		TokenAddress:       "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Amount:             big.NewInt(100_000_000),
		Nonce:              nonce,
	}
}

func newTestMonitor(chainID domain.ChainID) *health.Monitor {
	m := health.NewMonitor()
	m.Register(chainID)
	return m
}

func TestWatcher_PublishesInOrder(t *testing.T) {
	src := &scriptedSource{
		chainID: domain.ChainIDEthereum,
		results: []pollResult{
			{ev: testEvent(1)},
			{ev: nil}, // empty tick
			{ev: testEvent(2)},
			{ev: testEvent(3)},
		},
	}
	out := make(chan *domain.DepositEvent, 10)

	w := New(Config{
		ChainID:      domain.ChainIDEthereum,
		Source:       src,
		Out:          out,
		PollInterval: time.Millisecond,
		MaxBackoff:   10 * time.Millisecond,
		Monitor:      newTestMonitor(domain.ChainIDEthereum),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	var got []uint64
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case ev := <-out:
			got = append(got, ev.Nonce)
		case <-timeout:
			t.Fatalf("timed out, received %v", got)
		}
	}
	cancel()
	<-done

	for i, nonce := range got {
		if nonce != uint64(i+1) {
			t.Fatalf("events out of order: %v", got)
		}
	}
}

func TestWatcher_BacksOffOnFailure(t *testing.T) {
	src := &scriptedSource{
		chainID: domain.ChainIDEthereum,
		results: []pollResult{
			{err: errors.New("rpc down")},
			{err: errors.New("rpc down")},
			{ev: testEvent(1)},
		},
	}
	out := make(chan *domain.DepositEvent, 1)
	mon := newTestMonitor(domain.ChainIDEthereum)

	w := New(Config{
		ChainID:      domain.ChainIDEthereum,
		Source:       src,
		Out:          out,
		PollInterval: time.Millisecond,
		MaxBackoff:   20 * time.Millisecond,
		Monitor:      mon,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case ev := <-out:
		if ev.Nonce != 1 {
			t.Errorf("unexpected event nonce %d", ev.Nonce)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never recovered from transient failures")
	}

	// Failure streak cleared by the successful poll.
	if h := mon.CheckHealth()["1"]; h.ConsecutiveFailures != 0 {
		t.Errorf("expected cleared failure streak, got %d", h.ConsecutiveFailures)
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	src := &scriptedSource{chainID: domain.ChainIDEthereum}
	out := make(chan *domain.DepositEvent, 1)

	w := New(Config{
		ChainID:      domain.ChainIDEthereum,
		Source:       src,
		Out:          out,
		PollInterval: time.Millisecond,
		Monitor:      newTestMonitor(domain.ChainIDEthereum),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}

	// No polls may start after cancellation.
	count := src.pollCount()
	time.Sleep(20 * time.Millisecond)
	if src.pollCount() != count {
		t.Error("poll started after cancellation")
	}
}

func TestWatcher_CancelWhileBlockedOnFullChannel(t *testing.T) {
	src := &scriptedSource{
		chainID: domain.ChainIDEthereum,
		results: []pollResult{
			{ev: testEvent(1)},
			{ev: testEvent(2)}, // channel is full by now
		},
	}
	out := make(chan *domain.DepositEvent, 1)

	w := New(Config{
		ChainID:      domain.ChainIDEthereum,
		Source:       src,
		Out:          out,
		PollInterval: time.Millisecond,
		Monitor:      newTestMonitor(domain.ChainIDEthereum),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Wait until the second publish is blocked, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher stuck on blocked publish after cancellation")
	}

	// The first event was accepted and must still be in the channel.
	select {
	case ev := <-out:
		if ev.Nonce != 1 {
			t.Errorf("unexpected nonce %d", ev.Nonce)
		}
	default:
		t.Error("published event lost")
	}
}
