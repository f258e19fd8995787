package quorum

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

const requestSignaturesMethod = "/bridge.v1.ValidatorCoordinator/RequestSignatures"

// jsonCodec lets us call the coordinator without generated stubs; both
// sides agree on JSON frames.
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type signatureRequest struct {
	MessageHash string `json:"message_hash"`
}

type signatureResponse struct {
	Status     string `json:"status"`
	Signatures int    `json:"signatures"`
	Threshold  int    `json:"threshold"`
}

// GRPCRequester is the real coordinator client.
type GRPCRequester struct {
	cc      grpc.ClientConnInterface
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewGRPCRequester dials the validator coordinator.
func NewGRPCRequester(ctx context.Context, endpoint string, timeout time.Duration) (*GRPCRequester, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial coordinator %s: %w", target, err)
	}

	return &GRPCRequester{cc: conn, conn: conn, timeout: timeout}, nil
}

// RequestSignatures submits the hash and maps the coordinator's answer to a
// QuorumStatus. Retryable transport failures are returned as-is; permanent
// ones are marked so callers stop retrying.
func (r *GRPCRequester) RequestSignatures(ctx context.Context, messageHash string) (domain.QuorumStatus, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := &signatureRequest{MessageHash: messageHash}
	resp := &signatureResponse{}

	err := r.cc.Invoke(ctx, requestSignaturesMethod, req, resp, grpc.CallContentSubtype("json"))
	if err != nil {
		return domain.QuorumPending, fmt.Errorf("request signatures: %w", err)
	}

	switch strings.ToUpper(resp.Status) {
	case "OBTAINED":
		return domain.QuorumObtained, nil
	case "PENDING":
		return domain.QuorumPending, nil
	case "FAILED":
		return domain.QuorumFailed, nil
	default:
		return domain.QuorumPending, fmt.Errorf("unknown quorum status %q", resp.Status)
	}
}

// Close tears down the coordinator connection.
func (r *GRPCRequester) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Retryable reports whether a coordinator error is worth retrying.
// Transport hiccups and resource exhaustion are; bad requests are not.
func Retryable(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return true // non-gRPC error, assume transient
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
