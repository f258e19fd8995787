package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ChainID identifies a blockchain network (e.g. 1 for Ethereum, 137 for Polygon).
type ChainID uint64

// Validation errors. All of them are terminal for a single event.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrSameChain         = errors.New("source and destination chain must differ")
	ErrMissingField      = errors.New("required field is empty")
	ErrInvalidAddress    = errors.New("invalid address")
)

// DepositEvent represents a token deposit observed on a source chain.
// It is immutable once constructed: the watcher hands ownership to the
// pipeline on publish and must not touch it afterwards.
type DepositEvent struct {
	TxHash             string    `json:"tx_hash"`
	SourceChainID      ChainID   `json:"source_chain_id"`
	DestinationChainID ChainID   `json:"destination_chain_id"`
	Sender             string    `json:"sender"`
	Recipient          string    `json:"recipient"`
	TokenAddress       string    `json:"token_address"`
	Amount             *big.Int  `json:"amount"`
	Nonce              uint64    `json:"nonce"`
	DetectedAt         time.Time `json:"detected_at"`
}

// Validate checks the event invariants. A failure here drops the event;
// it never affects other events.
func (e *DepositEvent) Validate() error {
	if e.Amount == nil || e.Amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if e.SourceChainID == 0 || e.DestinationChainID == 0 {
		return fmt.Errorf("%w: chain id", ErrMissingField)
	}
	if e.SourceChainID == e.DestinationChainID {
		return ErrSameChain
	}
	required := []struct{ name, value string }{
		{"tx_hash", e.TxHash},
		{"sender", e.Sender},
		{"recipient", e.Recipient},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	// Addresses are opaque in general, but anything 0x-prefixed must be a
	// well-formed EVM address.
	for _, addr := range []string{e.Sender, e.Recipient} {
		if strings.HasPrefix(addr, "0x") && !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
		}
	}
	return nil
}

// EnrichedEvent is a DepositEvent plus a best-effort USD valuation.
// EstimatedUSDValue is nil when enrichment failed; that is not fatal.
type EnrichedEvent struct {
	DepositEvent
	EstimatedUSDValue *float64 `json:"estimated_usd_value,omitempty"`
}

// USDValue converts a raw token amount to a USD estimate given the token's
// decimals and its unit price.
func USDValue(amount *big.Int, decimals int, price float64) float64 {
	whole := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	tokens, _ := new(big.Float).Quo(whole, divisor).Float64()
	return tokens * price
}
