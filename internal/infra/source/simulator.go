package source

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// USDC mainnet contract, the token the simulator "bridges".
const simulatedToken = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

// Simulator fabricates plausible deposit events without a node. It keeps
// the whole system runnable offline and drives the lifecycle tests.
type Simulator struct {
	chainID     domain.ChainID
	destChainID domain.ChainID
	hitRate     float64
	rng         *rand.Rand
	nonce       uint64
}

// NewSimulator creates a simulated source. hitRate is the probability that
// a poll finds an event; seed fixes the sequence for tests.
func NewSimulator(chainID, destChainID domain.ChainID, hitRate float64, seed int64) *Simulator {
	if hitRate <= 0 {
		hitRate = 0.4
	}
	return &Simulator{
		chainID:     chainID,
		destChainID: destChainID,
		hitRate:     hitRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulator) ChainID() domain.ChainID {
	return s.chainID
}

// Poll rolls the dice and, on a hit, fabricates the next deposit with a
// monotonically increasing nonce.
func (s *Simulator) Poll(ctx context.Context) (*domain.DepositEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.rng.Float64() > s.hitRate {
		return nil, nil
	}

	s.nonce++
	// USDC-style amounts: 100..10000 whole tokens at 6 decimals.
	amount := new(big.Int).Mul(
		big.NewInt(100+s.rng.Int63n(9901)),
		big.NewInt(1_000_000),
	)

	return &domain.DepositEvent{
		TxHash:             s.randomHex(32),
		SourceChainID:      s.chainID,
		DestinationChainID: s.destChainID,
		Sender:             s.randomHex(20),
		Recipient:          s.randomHex(20),
		TokenAddress:       simulatedToken,
		Amount:             amount,
		Nonce:              s.nonce,
		DetectedAt:         time.Now(),
	}, nil
}

func (s *Simulator) randomHex(n int) string {
	buf := make([]byte, n)
	s.rng.Read(buf)
	return fmt.Sprintf("0x%x", buf)
}
