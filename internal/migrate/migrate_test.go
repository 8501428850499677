package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/content-history/migrations"
)

func TestEmbeddedMigrations_AreGooseFiles(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(names), 2)

	for _, n := range names {
		b, err := fs.ReadFile(migrations.FS, n)
		require.NoError(t, err)
		body := string(b)
		require.True(t, strings.Contains(body, "-- +goose Up"), "%s lacks an Up section", n)
		require.True(t, strings.Contains(body, "-- +goose Down"), "%s lacks a Down section", n)
	}
}
