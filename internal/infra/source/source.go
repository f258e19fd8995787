// Package source defines the per-chain deposit event source abstraction.
package source

import (
	"context"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// Source produces deposit events for one chain. Poll is called on the
// watcher's cadence; a (nil, nil) return means no event this tick.
// Poll errors are transient: the watcher backs off and retries, never
// terminates.
type Source interface {
	// Poll returns the next detected deposit event, or nil if none.
	Poll(ctx context.Context) (*domain.DepositEvent, error)

	// ChainID identifies the chain this source watches.
	ChainID() domain.ChainID
}
