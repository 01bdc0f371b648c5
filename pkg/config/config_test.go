package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
  admin_id: 42
budget:
  limit: "7500"
deadline:
  at: "2025-12-19T09:00:00+03:00"
  timezone: Europe/Moscow
`)

	cfg, v, err := LoadFile(path, "test")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, int64(42), cfg.Bot.AdminID)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 8, cfg.Notifier.Concurrency)
	assert.Equal(t, 24*time.Hour, cfg.State.TTL)

	limit, err := cfg.BudgetLimit()
	require.NoError(t, err)
	assert.True(t, limit.Equal(decimal.NewFromInt(7500)))

	cutoff, err := cfg.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", cutoff.Location().String())
	assert.Equal(t, 9, cutoff.Hour())
	assert.True(t, cutoff.Equal(time.Date(2025, 12, 19, 6, 0, 0, 0, time.UTC)))
}

func TestLoadFile_ValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing token",
			body: "bot:\n  admin_id: 42\n",
		},
		{
			name: "unknown mode",
			body: "bot:\n  token: x\n  admin_id: 42\n  mode: carrier-pigeon\n",
		},
		{
			name: "webhook without url",
			body: "bot:\n  token: x\n  admin_id: 42\n  mode: webhook\n",
		},
		{
			name: "bad timezone",
			body: "bot:\n  token: x\n  admin_id: 42\ndeadline:\n  timezone: Mars/Olympus\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadFile(writeConfig(t, tt.body), "test")
			assert.Error(t, err)
		})
	}
}

func TestBudgetLimit_RejectsNonPositive(t *testing.T) {
	cfg := Config{Budget: BudgetConfig{Limit: "0"}}

	_, err := cfg.BudgetLimit()
	assert.Error(t, err)
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("BOT_ADMIN_ID", "7")

	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), "test")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, int64(7), cfg.Bot.AdminID)
	assert.Equal(t, "₽", cfg.Budget.Currency)
}
