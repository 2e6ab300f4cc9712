package publish

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates the publish request resolved to an empty bot
// token or chat id. Caller-correctable.
var ErrNotConfigured = errors.New("publish: bot token or chat id not configured")

// AccessDeniedError indicates pre-send verification found the target channel
// inaccessible. No send was attempted.
type AccessDeniedError struct {
	Reason string
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return "publish: channel not accessible: " + e.Reason
}

// ProviderError wraps a Telegram API or transport failure that aborted the
// dispatch. Per-photo failures inside the send loop are skipped instead and
// never surface as a ProviderError.
type ProviderError struct {
	Op  string // Bot API method that failed
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("publish: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying provider failure.
func (e *ProviderError) Unwrap() error { return e.Err }
