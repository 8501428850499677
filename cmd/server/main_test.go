package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/content-history/internal/config"
	"github.com/and161185/content-history/internal/repository/postgres"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	l, err := newLogger(config.LogSettings{Level: "warn"})
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = newLogger(config.LogSettings{Level: "debug", Dev: true})
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger(config.LogSettings{Level: "loud"})
	require.Error(t, err)
}

func TestOpenTypes(t *testing.T) {
	t.Parallel()

	types, err := openTypes("", &postgres.DB{})
	require.NoError(t, err)
	require.IsType(t, &postgres.TypeRepo{}, types)

	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
types:
  - id: 1
    title: Article
    alias: com_content.article
    table: content
    key_column: id
`), 0o600))
	types, err = openTypes(path, nil)
	require.NoError(t, err)
	ct, err := types.ByAlias(context.Background(), "com_content.article")
	require.NoError(t, err)
	require.Equal(t, int64(1), ct.ID)

	_, err = openTypes(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
