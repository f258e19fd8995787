// Package quorum talks to the validator coordinator that collects
// signatures authorizing a destination-chain release.
package quorum

import (
	"context"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// Requester asks the validator set to sign a message hash and reports the
// quorum outcome. The transport is opaque to the pipeline.
type Requester interface {
	// RequestSignatures submits a message hash for signing and returns the
	// quorum status for it.
	RequestSignatures(ctx context.Context, messageHash string) (domain.QuorumStatus, error)
}
