package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_PATH", "JWT_SECRET", "AUCTION_WINDOW", "SWEEP_SCHEDULE", "EXTEND_ON_NO_BIDS", "AUTO_OPEN", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/chitfund.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auction.Window.Std())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, "@every 30s", cfg.Auction.SweepSchedule)
	assert.Equal(t, 5.0, cfg.RateLimit.BidsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Insecure())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
database:
  path: /var/lib/chitfund/groups.db
auth:
  jwt_secret: a-very-long-production-secret
  token_ttl: 2h
auction:
  window: 48h
  sweep_schedule: "*/10 * * * * *"
  extend_on_no_bids: true
rate_limit:
  bids_per_second: 2
  burst: 3
log:
  level: debug
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("AUCTION_WINDOW", "90m")
	t.Setenv("AUTO_OPEN", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides the file")
	assert.Equal(t, "/var/lib/chitfund/groups.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, 90*time.Minute, cfg.Auction.Window.Std())
	assert.Equal(t, "*/10 * * * * *", cfg.Auction.SweepSchedule)
	assert.True(t, cfg.Auction.ExtendOnNoBids)
	assert.True(t, cfg.Auction.AutoOpen)
	assert.Equal(t, 2.0, cfg.RateLimit.BidsPerSecond)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Insecure())
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auction:\n  window: forever\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("PORT", "eighty")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.Server.Port = 70000
	cfg.Auth.JWTSecret = "short"
	cfg.Log.Level = "loud"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "auth.jwt_secret")
	assert.Contains(t, err.Error(), "log.level")
}
