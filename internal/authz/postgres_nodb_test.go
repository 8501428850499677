package authz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/and161185/content-history/internal/model"
)

/************ fake querier ************/
type fakeQuerier struct {
	rows    []bool
	err     error
	lastSQL string
	args    []any
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	rs := pgxmock.NewRows([]string{"allowed"})
	for _, r := range f.rows {
		rs.AddRow(r)
	}
	return rs.Kind(), nil
}

var editor = model.Actor{UserID: 5, SessionID: "s1"}

func TestAssetChain(t *testing.T) {
	got := AssetChain("com_content.article.42")
	want := []string{"com_content.article.42", "com_content.article", "com_content", RootAsset}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("chain: got %v want %v", got, want)
	}
}

func TestAuthorize_NoGrants_Denies(t *testing.T) {
	fq := &fakeQuerier{}
	e := NewPG(fq)

	ok, err := e.Authorize(context.Background(), editor, ActionEdit, "com_content.article.42")
	if err != nil || ok {
		t.Fatalf("no grants: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(fq.lastSQL, "FROM acl_grants") || !strings.Contains(fq.lastSQL, "asset IN ($3,$4,$5,$6)") {
		t.Fatalf("unexpected sql: %s", fq.lastSQL)
	}
	if len(fq.args) != 6 {
		t.Fatalf("want 6 args, got %d", len(fq.args))
	}
}

func TestAuthorize_InheritedAllow(t *testing.T) {
	e := NewPG(&fakeQuerier{rows: []bool{true}})
	ok, err := e.Authorize(context.Background(), editor, ActionEdit, "com_content.article.42")
	if err != nil || !ok {
		t.Fatalf("allow: ok=%v err=%v", ok, err)
	}
}

func TestAuthorize_ExplicitDenyWins(t *testing.T) {
	e := NewPG(&fakeQuerier{rows: []bool{true, false}})
	ok, err := e.Authorize(context.Background(), editor, ActionEdit, "com_content.article.42")
	if err != nil || ok {
		t.Fatalf("deny must win: ok=%v err=%v", ok, err)
	}
}

func TestAuthorize_Guest_NoQuery(t *testing.T) {
	fq := &fakeQuerier{rows: []bool{true}}
	e := NewPG(fq)
	ok, err := e.Authorize(context.Background(), model.Actor{}, ActionEdit, "com_content.article.42")
	if err != nil || ok || fq.lastSQL != "" {
		t.Fatalf("guest: ok=%v err=%v sql=%q", ok, err, fq.lastSQL)
	}
}

func TestAuthorize_DBError_Propagates(t *testing.T) {
	e := NewPG(&fakeQuerier{err: errors.New("db boom")})
	ok, err := e.Authorize(context.Background(), editor, ActionEdit, "com_content.article.42")
	if err == nil || ok {
		t.Fatalf("want error propagate, got ok=%v err=%v", ok, err)
	}
}
