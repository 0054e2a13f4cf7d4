// ABOUTME: Configuration loading and parsing for the agentwire client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete agentwire client configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Conversation  ConversationConfig  `yaml:"conversation"`
	Agent         AgentConfig         `yaml:"agent"`
	Session       SessionConfig       `yaml:"session"`
	Auth          AuthConfig          `yaml:"auth"`
	History       HistoryConfig       `yaml:"history"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds backend endpoint configuration
type ServerConfig struct {
	// BaseURL is the REST origin, e.g. "https://agent.example.com"
	BaseURL string `yaml:"base_url"`
	// SocketURL is the WebSocket origin; derived from BaseURL if empty
	SocketURL string `yaml:"socket_url"`
	// SocketPath is the event stream path, default "/events/socket"
	SocketPath string `yaml:"socket_path"`
}

// ConversationConfig identifies the conversation to attach to
type ConversationConfig struct {
	ID string `yaml:"id"`
}

// AgentConfig holds the agent settings sent in the init handshake
type AgentConfig struct {
	Model            string `yaml:"model"`
	Agent            string `yaml:"agent"`
	Language         string `yaml:"language"`
	ConfirmationMode bool   `yaml:"confirmation_mode"`
	SecurityAnalyzer string `yaml:"security_analyzer"`
}

// SessionConfig holds socket pipeline tuning
type SessionConfig struct {
	ReconnectDelay  time.Duration `yaml:"-"`
	TerminalCeiling int           `yaml:"terminal_ceiling"`

	// Raw string value for YAML unmarshaling
	ReconnectDelayRaw string `yaml:"reconnect_delay"`
}

// AuthConfig holds token acquisition configuration
type AuthConfig struct {
	// TokenEndpoint returns {"token": "..."}; empty means static token only
	TokenEndpoint string `yaml:"token_endpoint"`
	Retries       int    `yaml:"retries"`

	RetryDelay    time.Duration `yaml:"-"`
	RetryDelayRaw string        `yaml:"retry_delay"`
}

// HistoryConfig holds the persisted event log configuration
type HistoryConfig struct {
	// Path of the SQLite event log; empty disables persistence
	Path string `yaml:"path"`
}

// NotificationsConfig holds desktop notification opt-in
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Conversation.ID == "" {
		return fmt.Errorf("conversation.id is required")
	}
	if c.Session.TerminalCeiling < 0 {
		return fmt.Errorf("session.terminal_ceiling must not be negative")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.ReconnectDelayRaw != "" {
		cfg.Session.ReconnectDelay, err = time.ParseDuration(cfg.Session.ReconnectDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_delay %q: %w", cfg.Session.ReconnectDelayRaw, err)
		}
	}

	if cfg.Auth.RetryDelayRaw != "" {
		cfg.Auth.RetryDelay, err = time.ParseDuration(cfg.Auth.RetryDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing retry_delay %q: %w", cfg.Auth.RetryDelayRaw, err)
		}
	}

	return nil
}

// SocketBase returns the WebSocket origin, deriving ws(s):// from the REST
// base URL when socket_url is not set explicitly.
func (c *Config) SocketBase() string {
	if c.Server.SocketURL != "" {
		return c.Server.SocketURL
	}
	base := c.Server.BaseURL
	switch {
	case len(base) > 8 && base[:8] == "https://":
		return "wss://" + base[8:]
	case len(base) > 7 && base[:7] == "http://":
		return "ws://" + base[7:]
	}
	return base
}

// InitPayload derives the handshake payload from the configured agent
// settings.
func (c *Config) InitPayload() map[string]any {
	return map[string]any{
		"model":             c.Agent.Model,
		"agent":             c.Agent.Agent,
		"language":          c.Agent.Language,
		"confirmation_mode": c.Agent.ConfirmationMode,
		"security_analyzer": c.Agent.SecurityAnalyzer,
	}
}
