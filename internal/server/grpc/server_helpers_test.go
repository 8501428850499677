package grpcserver

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}

func Test_bearerTokenFromMD_MultipleHeaders_CaseInsensitive_Spaces(t *testing.T) {
	t.Parallel()
	md := metadata.New(nil)
	md.Append("authorization", "Basic foo")
	md.Append("authorization", "  bearer   tok.part.sig   ")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "tok.part.sig" {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func Test_splitFullMethod(t *testing.T) {
	t.Parallel()
	cases := map[string][2]string{
		"/contenthistory.v1.History/ListVersions": {"contenthistory.v1.History", "ListVersions"},
		"":                 {"unknown", "unknown"},
		"/nomethod":        {"nomethod", "unknown"},
		"/svc/":            {"svc", "unknown"},
		"/a/b/c":           {"a/b/c", "unknown"},
		"grpc.health.v1.Health/Check": {"grpc.health.v1.Health", "Check"},
	}
	for in, want := range cases {
		s, m := splitFullMethod(in)
		if s != want[0] || m != want[1] {
			t.Fatalf("%q: got %q %q, want %v", in, s, m, want)
		}
	}
}

func Test_FullMethod(t *testing.T) {
	if got := FullMethod(MethodKeepVersions); got != "/contenthistory.v1.History/KeepVersions" {
		t.Fatalf("got %q", got)
	}
}
