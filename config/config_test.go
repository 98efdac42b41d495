package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Load_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Matchmaking.LockTTL)
	assert.Equal(t, 45*time.Second, c.Matchmaking.HeartbeatTimeout)
	assert.Equal(t, 3, c.Matchmaking.MaxAttempts)
	assert.Equal(t, 1000, c.Matchmaking.PremiumBonus)
}

func Test_Load_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: ":9090"
matchmaking:
  lockttl: 5s
  premiumbonus: 2000
`)
	assert.NoError(t, os.WriteFile(path, body, 0o600))

	c, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Matchmaking.LockTTL)
	assert.Equal(t, 2000, c.Matchmaking.PremiumBonus)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, c.Matchmaking.SweepInterval)
	assert.Equal(t, 250, c.Matchmaking.RankedBonus)
}

func Test_Defaults_Consistency(t *testing.T) {
	c := Defaults()
	assert.Greater(t, c.Matchmaking.SessionTimeout, c.Matchmaking.HeartbeatTimeout)
	assert.Greater(t, c.Matchmaking.MaxQueueWait, c.Matchmaking.MatchInterval)
	assert.Greater(t, c.Matchmaking.WaitBonusCap, 0)
	assert.NotEmpty(t, c.Redis.Addr)
}
