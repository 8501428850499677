package grpcserver

import (
	"context"
	"testing"

	"github.com/and161185/content-history/internal/model"
)

func TestWithActor_And_ActorFromCtx(t *testing.T) {
	t.Parallel()

	if a, ok := ActorFromCtx(context.Background()); ok || a != (model.Actor{}) {
		t.Fatalf("expected no actor in empty ctx")
	}

	want := model.Actor{UserID: 12, SessionID: "s"}
	got, ok := ActorFromCtx(WithActor(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("mismatch: got %+v, want %+v", got, want)
	}

	bad := context.WithValue(context.Background(), actorKey, "not-an-actor")
	if _, ok := ActorFromCtx(bad); ok {
		t.Fatalf("expected miss on wrong typed value")
	}
}

func TestRequestIDFromCtx(t *testing.T) {
	t.Parallel()

	if id := RequestIDFromCtx(context.Background()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
	if id := RequestIDFromCtx(WithRequestID(context.Background(), "abc")); id != "abc" {
		t.Fatalf("got %q", id)
	}
}
