package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

var article = model.ContentType{ID: 1, Alias: "com_content.article", Table: "public.content", KeyColumn: "id"}

func TestItemRepo_Load_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)

	mock.ExpectQuery(`SELECT \* FROM "public"\."content" WHERE "id"=\$1`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "hits"}).AddRow(int64(42), "Hello", int64(7)))

	row, err := r.Load(context.Background(), article, 42)
	require.NoError(t, err)
	require.Equal(t, "Hello", row["title"])
	require.Equal(t, int64(7), row["hits"])
}

func TestItemRepo_Load_Missing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "public"\."content"`).
		WithArgs(int64(43)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title"}))
	_, err := r.Load(ctx, article, 43)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`SELECT \* FROM "public"\."content"`).
		WithArgs(int64(44)).
		WillReturnError(&pgconn.PgError{Code: "42P01"})
	_, err = r.Load(ctx, article, 44)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = r.Load(ctx, model.ContentType{Alias: "x.y"}, 1)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
