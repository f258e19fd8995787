// Package monitor delivers processing outcomes to an external
// monitoring/reporting service.
package monitor

import (
	"context"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// Sink receives one summary per processed event. Reporting is not
// transactional with the relay action: a failed report never re-runs
// earlier stages.
type Sink interface {
	// Report delivers a processing summary.
	Report(ctx context.Context, summary domain.ReportSummary) error
}
