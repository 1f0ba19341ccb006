package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultAPIBase = "https://esita-backend.onrender.com"

type Config struct {
	Chat    ChatConfig    `json:"chat"`
	Widget  WidgetConfig  `json:"widget"`
	Gateway GatewayConfig `json:"gateway"`
	Log     LogConfig     `json:"log"`
}

// ChatConfig configures the client core: where the chat API lives and how
// long requests may take.
type ChatConfig struct {
	APIBase        string `json:"api_base" env:"ESITA_CHAT_API_BASE"`
	RequestTimeout int    `json:"request_timeout" env:"ESITA_CHAT_REQUEST_TIMEOUT"` // seconds
	HealthTimeout  int    `json:"health_timeout" env:"ESITA_CHAT_HEALTH_TIMEOUT"`   // seconds
	HistoryWindow  int    `json:"history_window" env:"ESITA_CHAT_HISTORY_WINDOW"`
	BotName        string `json:"bot_name" env:"ESITA_CHAT_BOT_NAME"`
	CreatorName    string `json:"creator_name" env:"ESITA_CHAT_CREATOR_NAME"`
	Greeting       string `json:"greeting" env:"ESITA_CHAT_GREETING"`
}

type WidgetConfig struct {
	Host string `json:"host" env:"ESITA_WIDGET_HOST"`
	Port int    `json:"port" env:"ESITA_WIDGET_PORT"`
}

type GatewayConfig struct {
	Host           string   `json:"host" env:"ESITA_GATEWAY_HOST"`
	Port           int      `json:"port" env:"ESITA_GATEWAY_PORT"`
	GeminiAPIKey   string   `json:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string   `json:"model" env:"ESITA_GATEWAY_MODEL"`
	AllowedOrigins []string `json:"allowed_origins" env:"ESITA_GATEWAY_ALLOWED_ORIGINS"`
}

type LogConfig struct {
	Level string `json:"level" env:"ESITA_LOG_LEVEL"`
}

func DefaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			APIBase:        defaultAPIBase,
			RequestTimeout: 45,
			HealthTimeout:  15,
			HistoryWindow:  10,
			BotName:        "Esita",
			CreatorName:    "the Esita team",
			Greeting:       "Hi! I'm Esita. How can I help you today?",
		},
		Widget: WidgetConfig{
			Host: "0.0.0.0",
			Port: 18900,
		},
		Gateway: GatewayConfig{
			Host:  "0.0.0.0",
			Port:  8000,
			Model: "gemini-1.5-flash",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
				"https://esita-chatbot.netlify.app",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Support full config from env var (for containers / serverless)
	if cfgJSON := os.Getenv("ESITA_CONFIG_JSON"); cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
			return nil, fmt.Errorf("parsing ESITA_CONFIG_JSON: %w", err)
		}
		if err := env.Parse(cfg); err != nil {
			return nil, err
		}
		cfg.normalize()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			cfg.normalize()
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// normalize cleans up values that arrive from files or the environment.
// The API base keeps no trailing slash so paths can be joined naively.
func (c *Config) normalize() {
	c.Chat.APIBase = strings.TrimRight(strings.TrimSpace(c.Chat.APIBase), "/")
	if c.Chat.APIBase == "" {
		c.Chat.APIBase = defaultAPIBase
	}
	if c.Chat.RequestTimeout <= 0 {
		c.Chat.RequestTimeout = 45
	}
	if c.Chat.HealthTimeout <= 0 {
		c.Chat.HealthTimeout = 15
	}
	if c.Chat.HistoryWindow <= 0 {
		c.Chat.HistoryWindow = 10
	}
}

// RequestTimeoutDuration returns the chat request deadline as a duration.
func (c *ChatConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// HealthTimeoutDuration returns the health probe deadline as a duration.
func (c *ChatConfig) HealthTimeoutDuration() time.Duration {
	return time.Duration(c.HealthTimeout) * time.Second
}
