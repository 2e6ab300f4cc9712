package config

import "time"

// Config is the root configuration document.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Media    MediaConfig    `yaml:"media"`
	Telegram TelegramConfig `yaml:"telegram"`
	Trash    TrashConfig    `yaml:"trash"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures bearer authentication for the API endpoints.
// Empty means the API is open (suitable for loopback binds only).
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// IsConfigured returns true if authentication is enabled.
func (a AuthConfig) IsConfigured() bool { return a.BearerToken != "" }

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// MediaConfig locates the uploaded-file directory.
type MediaConfig struct {
	Dir string `yaml:"dir"`
}

// TelegramConfig holds the publishing credential and channel defaults.
type TelegramConfig struct {
	Token            string    `yaml:"token"`
	ChatID           string    `yaml:"chat_id"`
	APIURL           string    `yaml:"api_url"`
	VerifyBeforeSend bool      `yaml:"verify_before_send"`
	Channels         []Channel `yaml:"channels"`
}

// Channel is one named publishing destination selectable per request.
type Channel struct {
	Name   string `yaml:"name" json:"name"`
	ChatID string `yaml:"chat_id" json:"chat_id"`
}

// TrashConfig controls automatic purging of soft-deleted notes.
type TrashConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Retention time.Duration `yaml:"retention"`
	Schedule  string        `yaml:"schedule"`
}

// TracingConfig enables OTLP trace export when an endpoint is set.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1:8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		// Publishing a multi-image note issues several upstream calls.
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/telepress.db"
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "data/media"
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Trash.Retention <= 0 {
		c.Trash.Retention = 30 * 24 * time.Hour
	}
	if c.Trash.Schedule == "" {
		c.Trash.Schedule = "0 3 * * *"
	}
}
