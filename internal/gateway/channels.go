package gateway

import (
	"errors"
	"net/http"

	"github.com/telepress/telepress/internal/publish"
)

// channelJSON is one publishing destination as reported by the API.
type channelJSON struct {
	Name    string `json:"name"`
	ChatID  string `json:"chat_id"`
	Default bool   `json:"default"`
}

// handleListChannels reports the configured destinations. The configured
// default chat appears even when it has no named channel entry.
func (g *Gateway) handleListChannels() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := make([]channelJSON, 0, len(g.telegram.Channels)+1)

		defaultListed := false
		for _, ch := range g.telegram.Channels {
			isDefault := ch.ChatID == g.telegram.ChatID && g.telegram.ChatID != ""
			defaultListed = defaultListed || isDefault
			items = append(items, channelJSON{Name: ch.Name, ChatID: ch.ChatID, Default: isDefault})
		}
		if g.telegram.ChatID != "" && !defaultListed {
			items = append([]channelJSON{{Name: "default", ChatID: g.telegram.ChatID, Default: true}}, items...)
		}

		writeJSON(w, http.StatusOK, listResponse[channelJSON]{Items: items})
	}
}

type verifyBody struct {
	ChatID  string `json:"chat_id"`
	Channel string `json:"channel"`
	Token   string `json:"token"`
}

// handleVerifyChannel checks whether the bot can reach a chat. The verdict
// is always 200; inaccessibility is data, not an HTTP error.
func (g *Gateway) handleVerifyChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		chatID, ok := g.resolveChatID(publishBody{ChatID: body.ChatID, Channel: body.Channel})
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown channel: "+body.Channel)
			return
		}

		verdict, err := g.publisher.Verify(r.Context(), body.Token, chatID)
		if errors.Is(err, publish.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, verdict)
	}
}
