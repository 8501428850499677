package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("HISTORY_AUTH_JWT_KEY", "secret")
	t.Setenv("HISTORY_HISTORY_MAX_BATCH", "50")
	t.Setenv("HISTORY_REDIS_SESSION_TTL", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Auth.JWTKey)
	require.Equal(t, 50, cfg.History.MaxBatch)
	require.Equal(t, 30*time.Second, cfg.Redis.SessionTTL)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, ":8443", cfg.Server.Addr)
	require.Equal(t, "history.versions", cfg.Kafka.Topic)
	require.True(t, cfg.Postgres.Migrate)
	require.Empty(t, cfg.Redis.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
auth:
  jwt_key: from-file
kafka:
  brokers: ["k1:9092", "k2:9092"]
history:
  types_file: types.yaml
`), 0o600))
	t.Setenv("HISTORY_AUTH_JWT_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "from-env", cfg.Auth.JWTKey)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "types.yaml", cfg.History.TypesFile)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HISTORY_AUTH_JWT_KEY", "")
	_, err := Load("")
	require.ErrorContains(t, err, "auth.jwt_key")

	c := Config{
		Auth:     AuthSettings{JWTKey: "k"},
		Postgres: PostgresSettings{DSN: "postgres://x"},
		History:  HistorySettings{MaxBatch: 0},
		Server:   ServerSettings{TLSCert: "cert.pem"},
	}
	err = c.Validate()
	require.ErrorContains(t, err, "max_batch")
	require.ErrorContains(t, err, "tls_key")
}
