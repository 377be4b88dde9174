package metadata

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type headerStream struct {
	header metadata.MD
}

func (s *headerStream) Method() string { return "/decicourt.court.v1.CourtService/GetParams" }

func (s *headerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *headerStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *headerStream) SetTrailer(metadata.MD) error { return nil }

func invoke(t *testing.T, incoming metadata.MD, newID func() (string, error)) (context.Context, *headerStream, error) {
	t.Helper()
	stream := &headerStream{}
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), stream)
	ctx = metadata.NewIncomingContext(ctx, incoming)
	var seen context.Context
	_, err := UnaryServerInterceptor(newID)(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		seen = ctx
		return nil, nil
	})
	return seen, stream, err
}

func TestInterceptorGeneratesRequestID(t *testing.T) {
	ctx, stream, err := invoke(t, metadata.MD{}, func() (string, error) { return "generated", nil })
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if got := RequestIDFromContext(ctx); got != "generated" {
		t.Fatalf("expected generated request id, got %q", got)
	}
	if got := stream.header.Get(RequestIDHeader); len(got) != 1 || got[0] != "generated" {
		t.Fatalf("expected echoed request id, got %v", got)
	}
	if got := stream.header.Get(InvocationIDHeader); len(got) != 0 {
		t.Fatalf("expected no invocation header, got %v", got)
	}
}

func TestInterceptorKeepsCallerIDs(t *testing.T) {
	incoming := metadata.Pairs(RequestIDHeader, "req-1", InvocationIDHeader, "inv-1")
	ctx, stream, err := invoke(t, incoming, func() (string, error) {
		t.Fatal("id generator must not run")
		return "", nil
	})
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if RequestIDFromContext(ctx) != "req-1" || InvocationIDFromContext(ctx) != "inv-1" {
		t.Fatalf("unexpected ids %q %q", RequestIDFromContext(ctx), InvocationIDFromContext(ctx))
	}
	if got := stream.header.Get(InvocationIDHeader); len(got) != 1 || got[0] != "inv-1" {
		t.Fatalf("expected echoed invocation id, got %v", got)
	}
}

func TestInterceptorFailsWhenIDGenerationFails(t *testing.T) {
	_, _, err := invoke(t, metadata.MD{}, func() (string, error) { return "", errors.New("no entropy") })
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestFirstValueSkipsUnprintable(t *testing.T) {
	md := metadata.MD{AccountHeader: {"bad\nvalue", " alice "}}
	if got := FirstValue(md, AccountHeader); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	if got := FirstValue(md, "missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := Incoming(context.Background(), AccountHeader); got != "" {
		t.Fatalf("expected empty without metadata, got %q", got)
	}
}
