package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.App.HTTPAddr)
	assert.Equal(t, BackendPostgres, cfg.App.StoreBackend)
	assert.Equal(t, 3, cfg.Postgres.AdjustMaxRetries)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pickup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  http_addr: ":9000"
  store_backend: memory
kafka:
  brokers: "a:9092, b:9092"
`), 0o600))

	t.Setenv("PICKUP_APP__HTTP_ADDR", ":9100")
	t.Setenv("PICKUP_INTAKE__WORKERS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.App.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.App.StoreBackend)
	assert.Equal(t, 2, cfg.Intake.Workers)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("PICKUP_APP__STORE_BACKEND", "sqlite")
	_, err := Load("")
	assert.ErrorContains(t, err, "store_backend")
}

func TestKafkaBrokers_EmptyDisables(t *testing.T) {
	var cfg Config
	assert.Empty(t, cfg.KafkaBrokers())
}
