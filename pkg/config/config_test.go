package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 45, cfg.Chat.RequestTimeout)
	assert.Equal(t, 15, cfg.Chat.HealthTimeout)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, "Esita", cfg.Chat.BotName)
	assert.NotEmpty(t, cfg.Chat.APIBase)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gateway.Model)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Chat.APIBase, cfg.Chat.APIBase)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"chat": {"api_base": "http://localhost:9000/", "history_window": 4},
		"log": {"level": "debug"}
	}`), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.Chat.APIBase, "trailing slash is stripped")
	assert.Equal(t, 4, cfg.Chat.HistoryWindow)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, 45, cfg.Chat.RequestTimeout)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chat": {"api_base": "http://from-file"}}`), 0644))

	t.Setenv("ESITA_CHAT_API_BASE", "http://from-env/")
	t.Setenv("ESITA_CHAT_BOT_NAME", "Testita")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Chat.APIBase)
	assert.Equal(t, "Testita", cfg.Chat.BotName)
}

func TestLoadConfigFromEnvJSON(t *testing.T) {
	t.Setenv("ESITA_CONFIG_JSON", `{"chat": {"api_base": "http://json-env", "request_timeout": 5}}`)

	cfg, err := LoadConfig("does-not-matter.json")

	require.NoError(t, err)
	assert.Equal(t, "http://json-env", cfg.Chat.APIBase)
	assert.Equal(t, 5, cfg.Chat.RequestTimeout)
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"chat": {"api_base": "  ", "request_timeout": -1, "history_window": 0}
	}`), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Chat.APIBase, cfg.Chat.APIBase)
	assert.Equal(t, 45, cfg.Chat.RequestTimeout)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
}
