package authz

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
	"github.com/and161185/content-history/internal/registry"
	"github.com/and161185/content-history/internal/session"
)

type fakeEngine struct {
	allow map[string]bool
	err   error
	calls []string
}

func (f *fakeEngine) Authorize(_ context.Context, _ model.Actor, action, resource string) (bool, error) {
	f.calls = append(f.calls, action+" "+resource)
	return f.allow[resource], f.err
}

type failingTypes struct{ err error }

func (f failingTypes) ByID(context.Context, int64) (*model.ContentType, error)      { return nil, f.err }
func (f failingTypes) ByAlias(context.Context, string) (*model.ContentType, error) { return nil, f.err }

type failingSessions struct{}

func (failingSessions) EditableIDs(context.Context, string, string) ([]int64, error) {
	return nil, errors.New("redis down")
}

func newRegistry(t *testing.T) *registry.Static {
	t.Helper()
	r, err := registry.New([]model.ContentType{
		{ID: 1, Alias: "com_content.article", Table: "content"},
		{ID: 3, Alias: "com_contact.contact", Table: "contact_details"},
	})
	require.NoError(t, err)
	return r
}

const articleAlias = "com_content.article"

func TestCanModify_Matrix(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{UserID: 5, SessionID: "s1"}
	held := session.NewMemory()
	held.Hold("s1", articleAlias, 77)

	eng := &fakeEngine{allow: map[string]bool{"com_content.article.42": true}}
	d := NewDelegate(newRegistry(t), eng, held)

	cases := []struct {
		name  string
		alias string
		v     model.Version
		want  bool
	}{
		{"zero type", articleAlias, model.Version{ItemID: 42}, false},
		{"unknown type", articleAlias, model.Version{ItemID: 42, TypeID: 99}, false},
		{"alias mismatch", "com_contact.contact", model.Version{ItemID: 42, TypeID: 1}, false},
		{"acl allows", articleAlias, model.Version{ItemID: 42, TypeID: 1}, true},
		{"session fallback", articleAlias, model.Version{ItemID: 77, TypeID: 1}, true},
		{"denied", articleAlias, model.Version{ItemID: 78, TypeID: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := d.CanModify(ctx, actor, c.alias, c.v)
			require.NoError(t, err)
			require.Equal(t, c.want, got)

			del, err := d.CanDelete(ctx, actor, c.alias, c.v)
			require.NoError(t, err)
			require.Equal(t, got, del)
		})
	}
}

func TestCanModify_AliasMismatchSkipsEngine(t *testing.T) {
	eng := &fakeEngine{}
	d := NewDelegate(newRegistry(t), eng, session.NewMemory())

	ok, err := d.CanModify(context.Background(), model.Actor{UserID: 1}, "com_contact.contact", model.Version{ItemID: 1, TypeID: 1})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, eng.calls)
}

func TestCanModify_ChecksEditOnLiveItem(t *testing.T) {
	eng := &fakeEngine{}
	d := NewDelegate(newRegistry(t), eng, session.NewMemory())

	_, err := d.CanModify(context.Background(), model.Actor{UserID: 1}, articleAlias, model.Version{ID: 900, ItemID: 42, TypeID: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"core.edit com_content.article.42"}, eng.calls)
}

func TestCanModify_OtherSessionDoesNotCount(t *testing.T) {
	held := session.NewMemory()
	held.Hold("other", articleAlias, 42)
	d := NewDelegate(newRegistry(t), &fakeEngine{}, held)

	ok, err := d.CanModify(context.Background(), model.Actor{UserID: 1, SessionID: "mine"}, articleAlias, model.Version{ItemID: 42, TypeID: 1})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanModify_CollaboratorFaults(t *testing.T) {
	ctx := context.Background()
	v := model.Version{ItemID: 42, TypeID: 1}
	actor := model.Actor{UserID: 1, SessionID: "s"}

	d := NewDelegate(failingTypes{err: errors.New("db down")}, &fakeEngine{}, session.NewMemory())
	_, err := d.CanModify(ctx, actor, articleAlias, v)
	require.Error(t, err)

	d = NewDelegate(failingTypes{err: errs.ErrNotFound}, &fakeEngine{}, session.NewMemory())
	ok, err := d.CanModify(ctx, actor, articleAlias, v)
	require.NoError(t, err)
	require.False(t, ok)

	d = NewDelegate(newRegistry(t), &fakeEngine{err: errors.New("acl down")}, session.NewMemory())
	_, err = d.CanModify(ctx, actor, articleAlias, v)
	require.Error(t, err)

	d = NewDelegate(newRegistry(t), &fakeEngine{}, failingSessions{})
	_, err = d.CanModify(ctx, actor, articleAlias, v)
	require.Error(t, err)
}

func TestCanModify_SessionWrittenByEditWorkflow(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{UserID: 5, SessionID: "s1"}
	v := model.Version{ItemID: 77, TypeID: 1}
	eng := &fakeEngine{allow: map[string]bool{}}

	// nothing holds the item in an empty in-process store; the ACL decides
	ok, err := NewDelegate(newRegistry(t), eng, session.NewMemory()).CanModify(ctx, actor, articleAlias, v)
	require.NoError(t, err)
	require.False(t, ok)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := red.NewClient(&red.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// the edit workflow records the checkout straight into Redis
	_, err = server.SAdd("hs:s1:com_content.edit.article.id", "77")
	require.NoError(t, err)

	d := NewDelegate(newRegistry(t), eng, session.NewRedis(client, "hs", 0))
	ok, err = d.CanModify(ctx, actor, articleAlias, v)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = d.CanModify(ctx, model.Actor{UserID: 5, SessionID: "s2"}, articleAlias, v)
	require.NoError(t, err)
	require.False(t, ok)
}
