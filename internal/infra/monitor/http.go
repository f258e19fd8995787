package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// HTTPSink POSTs JSON summaries to a monitoring endpoint.
type HTTPSink struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPSink creates a sink for the given endpoint.
func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Report POSTs the summary. Any non-2xx answer is an error so the caller's
// bounded retry kicks in.
func (s *HTTPSink) Report(ctx context.Context, summary domain.ReportSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("monitoring http %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
