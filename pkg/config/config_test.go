package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Backend: "127.0.0.1:25565"}
	require.NoError(t, Validate(&cfg))
	assert.Equal(t, "127.0.0.1:25566", cfg.Bind)
	assert.Equal(t, AuthOffline, cfg.Auth)
	assert.Equal(t, 20, cfg.MaxPlayers)
}

func TestValidateRequiresBackend(t *testing.T) {
	cfg := Config{}
	require.Error(t, Validate(&cfg))
}

func TestStatusJSONEmbedsMotdAndPlayerCount(t *testing.T) {
	cfg := Config{Backend: "127.0.0.1:25565", Motd: "hello", MaxPlayers: 5}
	require.NoError(t, Validate(&cfg))
	body := cfg.StatusJSON()
	assert.Contains(t, body, `"protocol":340`)
	assert.Contains(t, body, `"max":5`)
	assert.Contains(t, body, "hello")
}
