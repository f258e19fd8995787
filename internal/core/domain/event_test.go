package domain

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func validEvent() *DepositEvent {
	return &DepositEvent{
		TxHash:             "0xabc123",
		SourceChainID:      ChainIDEthereum,
		DestinationChainID: ChainIDPolygon,
		Sender:             "0x7cB57B5A97eAbe94205C07890BE4c1aD31E486A8",
		Recipient:          "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		TokenAddress:       "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Amount:             big.NewInt(100_000_000),
		Nonce:              1,
		DetectedAt:         time.Now(),
	}
}

func TestDepositEvent_Validate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	t.Run("zero amount", func(t *testing.T) {
		ev := validEvent()
		ev.Amount = big.NewInt(0)
		if err := ev.Validate(); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("expected ErrNonPositiveAmount, got %v", err)
		}
	})

	t.Run("nil amount", func(t *testing.T) {
		ev := validEvent()
		ev.Amount = nil
		if err := ev.Validate(); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("expected ErrNonPositiveAmount, got %v", err)
		}
	})

	t.Run("same chain", func(t *testing.T) {
		ev := validEvent()
		ev.DestinationChainID = ev.SourceChainID
		if err := ev.Validate(); !errors.Is(err, ErrSameChain) {
			t.Errorf("expected ErrSameChain, got %v", err)
		}
	})

	t.Run("empty recipient", func(t *testing.T) {
		ev := validEvent()
		ev.Recipient = ""
		if err := ev.Validate(); !errors.Is(err, ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("malformed hex address", func(t *testing.T) {
		ev := validEvent()
		ev.Sender = "0xnothex"
		if err := ev.Validate(); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("expected ErrInvalidAddress, got %v", err)
		}
	})

	t.Run("opaque non-hex address allowed", func(t *testing.T) {
		ev := validEvent()
		ev.Sender = "sui:0b3a2f"
		if err := ev.Validate(); err != nil {
			t.Errorf("opaque address rejected: %v", err)
		}
	})
}

func TestMessageHash_Deterministic(t *testing.T) {
	ev := validEvent()

	h1 := MessageHash(ev)
	h2 := MessageHash(ev)
	if h1 != h2 {
		t.Errorf("hash not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 66 { // 0x + 32 bytes hex
		t.Errorf("unexpected hash length: %d (%s)", len(h1), h1)
	}

	// DetectedAt is not a canonical field; it must not affect the hash.
	later := *ev
	later.DetectedAt = ev.DetectedAt.Add(time.Hour)
	if MessageHash(&later) != h1 {
		t.Error("hash depends on detection time")
	}

	// Nonce is canonical; changing it must change the hash.
	other := *ev
	other.Nonce = ev.Nonce + 1
	if MessageHash(&other) == h1 {
		t.Error("hash identical for different nonce")
	}
}

func TestUSDValue(t *testing.T) {
	// 100 USDC (6 decimals) at $1.00
	got := USDValue(big.NewInt(100_000_000), 6, 1.0)
	if got != 100.0 {
		t.Errorf("expected 100.0, got %f", got)
	}

	// 1.5 tokens (18 decimals) at $2000
	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	got = USDValue(amount, 18, 2000.0)
	if got < 2999.99 || got > 3000.01 {
		t.Errorf("expected ~3000, got %f", got)
	}
}
