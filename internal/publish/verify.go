package publish

import (
	"context"
	"errors"
	"strings"

	"github.com/telepress/telepress/internal/telegram"
)

// deniedReason is the fixed message returned when the provider reports the
// chat as unknown or the bot as a non-member. The raw provider string is
// deliberately not surfaced for this case.
const deniedReason = "bot lacks membership or channel does not exist"

// AccessVerdict is the outcome of one access verification call. It is
// produced per call and never cached.
type AccessVerdict struct {
	Accessible bool           `json:"accessible"`
	Bot        *telegram.User `json:"bot,omitempty"`
	Chat       *telegram.Chat `json:"chat,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// VerifyAccess confirms the token is valid (getMe) and that the bot can see
// the target chat (getChat). Every failure path resolves to a populated
// verdict; no error is returned to the caller.
func VerifyAccess(ctx context.Context, client *telegram.Client, chatID string) AccessVerdict {
	bot, err := client.GetMe(ctx)
	if err != nil {
		return AccessVerdict{Reason: err.Error()}
	}

	chat, err := client.GetChat(ctx, chatID)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && isMembershipError(apiErr.Description) {
			return AccessVerdict{Bot: bot, Reason: deniedReason}
		}
		return AccessVerdict{Bot: bot, Reason: err.Error()}
	}

	return AccessVerdict{Accessible: true, Bot: bot, Chat: chat}
}

// isMembershipError reports whether a Bot API error description means the
// chat is unknown to the bot rather than some other failure.
func isMembershipError(description string) bool {
	d := strings.ToLower(description)
	return strings.Contains(d, "chat not found") ||
		strings.Contains(d, "not a member") ||
		strings.Contains(d, "bot was kicked") ||
		strings.Contains(d, "forbidden")
}
