package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.InviteTokenTTL)
	assert.Equal(t, "0 */6 * * *", cfg.SweepSchedule)
	assert.Equal(t, 500, cfg.SweepBatchSize)
	assert.Equal(t, 10*time.Second, cfg.EmailTimeout)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_BATCH_SIZE", "0")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "rg"}
	assert.Equal(t, "u:p@tcp(db:3306)/rg?parseTime=true&loc=UTC&clientFoundRows=true", cfg.DSN())
}
