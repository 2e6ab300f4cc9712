package gateway

import (
	"errors"
	"net/http"

	"github.com/telepress/telepress/internal/publish"
	"github.com/telepress/telepress/internal/store"
)

type publishBody struct {
	ChatID  string `json:"chat_id"`
	Channel string `json:"channel"`
	Token   string `json:"token"`
	Verify  bool   `json:"verify"`
}

// resolveChatID maps a named channel from the config to its chat id.
// An explicit chat_id wins over a channel name.
func (g *Gateway) resolveChatID(body publishBody) (string, bool) {
	if body.ChatID != "" || body.Channel == "" {
		return body.ChatID, true
	}
	return g.telegram.ChannelChatID(body.Channel)
}

// handlePublishNote loads a note and dispatches it to Telegram.
func (g *Gateway) handlePublishNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		var body publishBody
		if r.ContentLength > 0 {
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
		}
		chatID, ok := g.resolveChatID(body)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown channel: "+body.Channel)
			return
		}

		note, err := g.store.GetNote(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			g.logger.Error("loading note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "loading note failed")
			return
		}

		result, err := g.publisher.Publish(r.Context(), publish.Request{
			Title:    note.Title,
			BodyHTML: note.ContentHTML,
			ChatID:   chatID,
			Token:    body.Token,
			Verify:   body.Verify,
		})
		if err != nil {
			g.writePublishError(w, err)
			return
		}

		g.metrics.RecordPublish("ok")
		writeJSON(w, http.StatusOK, result)
	}
}

// writePublishError maps pipeline errors to HTTP statuses.
func (g *Gateway) writePublishError(w http.ResponseWriter, err error) {
	var denied *publish.AccessDeniedError
	var provider *publish.ProviderError

	switch {
	case errors.Is(err, publish.ErrNotConfigured):
		g.metrics.RecordPublish("not_configured")
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &denied):
		g.metrics.RecordPublish("denied")
		writeError(w, http.StatusForbidden, denied.Error())
	case errors.As(err, &provider):
		g.metrics.RecordPublish("provider_error")
		writeError(w, http.StatusBadGateway, provider.Error())
	default:
		g.metrics.RecordPublish("provider_error")
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

type previewBody struct {
	Title       string `json:"title"`
	ContentHTML string `json:"content_html"`
}

// handlePreview runs the dispatch pipeline without sending anything.
func (g *Gateway) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body previewBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		writeJSON(w, http.StatusOK, publish.BuildPreview(body.Title, body.ContentHTML))
	}
}
