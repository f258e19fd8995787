// Package oracle provides token price lookup for event enrichment.
package oracle

import "context"

// Oracle returns the current USD price of a token. Enrichment is
// best-effort: callers treat failures as "no estimate", never as fatal.
type Oracle interface {
	// GetPrice returns the USD unit price for the given token address.
	GetPrice(ctx context.Context, tokenAddress string) (float64, error)
}
