package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes watcher health over HTTP next to the Prometheus endpoint.
// /health answers load balancers with an aggregate; /health/detailed returns
// the full per-chain report.
type Server struct {
	monitor *Monitor
	httpSrv *http.Server
}

// overview is the /health payload. The worst chain status wins; the counts
// distinguish a single bad chain from a degraded fleet.
type overview struct {
	Status   Status `json:"status"`
	Chains   int    `json:"chains"`
	Degraded int    `json:"degraded"`
	Critical int    `json:"critical"`
}

// NewServer creates the health server for the given port.
func NewServer(monitor *Monitor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		httpSrv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth()

	ov := overview{Status: StatusHealthy, Chains: len(report)}
	for _, chain := range report {
		switch chain.Status {
		case StatusCritical:
			ov.Critical++
		case StatusDegraded:
			ov.Degraded++
		}
	}
	switch {
	case ov.Critical > 0:
		ov.Status = StatusCritical
	case ov.Degraded > 0:
		ov.Status = StatusDegraded
	}

	code := http.StatusOK
	if ov.Status == StatusCritical {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ov)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.monitor.CheckHealth())
}
