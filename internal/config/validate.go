package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"time"
)

var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Validate checks field-level constraints. Defaults must already be applied.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("config: server.bind must be host:port, got %q", c.Server.Bind)
	}

	if c.Telegram.Token != "" && !tokenPattern.MatchString(c.Telegram.Token) {
		return fmt.Errorf("config: telegram.token format invalid (expected <bot_id>:<hash>)")
	}

	if c.Telegram.APIURL != "" {
		u, err := url.Parse(c.Telegram.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: telegram.api_url must be a valid http/https URL, got %q", c.Telegram.APIURL)
		}
	}

	seen := make(map[string]struct{}, len(c.Telegram.Channels))
	for i, ch := range c.Telegram.Channels {
		if ch.Name == "" {
			return fmt.Errorf("config: telegram.channels[%d]: name is required", i)
		}
		if ch.ChatID == "" {
			return fmt.Errorf("config: telegram.channels[%d] (%s): chat_id is required", i, ch.Name)
		}
		if _, ok := seen[ch.Name]; ok {
			return fmt.Errorf("config: telegram.channels: duplicate name %q", ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}

	if c.Trash.Retention < time.Hour {
		return fmt.Errorf("config: trash.retention must be at least 1h, got %s", c.Trash.Retention)
	}

	return nil
}

// ChannelChatID resolves a configured channel name to its chat id.
func (t TelegramConfig) ChannelChatID(name string) (string, bool) {
	for _, ch := range t.Channels {
		if ch.Name == name {
			return ch.ChatID, true
		}
	}
	return "", false
}
