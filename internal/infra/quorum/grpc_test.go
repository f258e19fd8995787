package quorum

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// fakeConn fakes the coordinator connection.
type fakeConn struct {
	status  string
	err     error
	invoked int
	lastReq *signatureRequest
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	f.invoked++
	f.lastReq = args.(*signatureRequest)
	if f.err != nil {
		return f.err
	}
	reply.(*signatureResponse).Status = f.status
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streaming not implemented")
}

func TestGRPCRequester_StatusMapping(t *testing.T) {
	cases := []struct {
		coordinator string
		want        domain.QuorumStatus
	}{
		{"OBTAINED", domain.QuorumObtained},
		{"obtained", domain.QuorumObtained},
		{"PENDING", domain.QuorumPending},
		{"FAILED", domain.QuorumFailed},
	}

	for _, tc := range cases {
		conn := &fakeConn{status: tc.coordinator}
		r := &GRPCRequester{cc: conn}

		got, err := r.RequestSignatures(context.Background(), "0xhash")
		if err != nil {
			t.Fatalf("status %s: unexpected error %v", tc.coordinator, err)
		}
		if got != tc.want {
			t.Errorf("status %s: got %s, want %s", tc.coordinator, got, tc.want)
		}
		if conn.lastReq.MessageHash != "0xhash" {
			t.Errorf("message hash not forwarded: %s", conn.lastReq.MessageHash)
		}
	}
}

func TestGRPCRequester_UnknownStatus(t *testing.T) {
	r := &GRPCRequester{cc: &fakeConn{status: "MAYBE"}}

	if _, err := r.RequestSignatures(context.Background(), "0xhash"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestGRPCRequester_TransportError(t *testing.T) {
	r := &GRPCRequester{cc: &fakeConn{err: status.Error(codes.Unavailable, "coordinator down")}}

	_, err := r.RequestSignatures(context.Background(), "0xhash")
	if err == nil {
		t.Fatal("expected error")
	}
	if !Retryable(err) {
		t.Error("Unavailable should be retryable")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, "transient failure"), true},
		{status.Error(codes.DeadlineExceeded, "slow"), true},
		{status.Error(codes.ResourceExhausted, "quota"), true},
		{status.Error(codes.InvalidArgument, "fatal error"), false},
		{status.Error(codes.PermissionDenied, "nope"), false},
		{errors.New("plain network error"), true},
	}

	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
