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
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Notify.FallbackToGameID)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 100, cfg.Promo.DefaultUsageLimit)
	assert.Equal(t, 30, cfg.Promo.DefaultValidDays)
	assert.False(t, cfg.Bot.Enabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  site_url: https://shop.example
storage:
  driver: postgres
admin:
  ids: [42, 7]
notify:
  fallback_to_game_id: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example", cfg.Server.SiteURL)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.False(t, cfg.Notify.FallbackToGameID)
	assert.True(t, cfg.Bot.Enabled())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(1))
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "shop"}
	assert.Equal(t, "postgres://u:p@localhost:5432/shop?sslmode=disable", d.DSN())
}
