// Package publish orchestrates the note publishing pipeline: transcoding the
// body, classifying image references, optionally verifying channel access,
// and dispatching the resulting Telegram API calls.
package publish

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/telepress/telepress/internal/markup"
	"github.com/telepress/telepress/internal/telegram"
)

// Defaults supplies the credential and channel used when a request names
// neither. Passed in explicitly at construction; there is no process-wide
// settings object.
type Defaults struct {
	Token  string
	ChatID string
}

// Publisher dispatches notes to Telegram. Stateless per call; safe for
// concurrent use. The underlying HTTP connection pool is shared across
// invocations.
type Publisher struct {
	defaults Defaults
	apiURL   string
	http     *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Request is one immutable publish invocation.
type Request struct {
	Title    string
	BodyHTML string
	ChatID   string // empty means the configured default
	Token    string // empty means the configured default
	Verify   bool   // verify channel access before sending
}

// Result aggregates the provider responses of one dispatch, in send order.
type Result struct {
	OK        bool               `json:"ok"`
	Responses []telegram.Message `json:"responses"`
}

// New creates a Publisher. apiURL is the Bot API base URL, empty for the
// production endpoint.
func New(defaults Defaults, apiURL string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		defaults: defaults,
		apiURL:   apiURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With("component", "publish"),
		tracer:   otel.Tracer("telepress/publish"),
	}
}

// Verify runs access verification outside a publish call, resolving the
// request's token and chat id against the configured defaults first.
func (p *Publisher) Verify(ctx context.Context, token, chatID string) (AccessVerdict, error) {
	token, chatID = p.resolve(token, chatID)
	if token == "" || chatID == "" {
		return AccessVerdict{}, ErrNotConfigured
	}
	client := telegram.NewClient(token, p.apiURL, p.http)
	return VerifyAccess(ctx, client, chatID), nil
}

// Publish runs the full pipeline for one request. Photo sends happen
// sequentially in document order; the first usable image carries the caption
// and individual photo failures are skipped. If no photo call produced a
// result, a text-only message is sent instead. Cancelling ctx aborts at the
// next call boundary; sends already issued are not undone.
func (p *Publisher) Publish(ctx context.Context, req Request) (Result, error) {
	token, chatID := p.resolve(req.Token, req.ChatID)
	if token == "" || chatID == "" {
		return Result{}, ErrNotConfigured
	}

	ctx, span := p.tracer.Start(ctx, "publish",
		trace.WithAttributes(attribute.String("chat_id", chatID)))
	defer span.End()

	client := telegram.NewClient(token, p.apiURL, p.http)

	if req.Verify {
		verdict := VerifyAccess(ctx, client, chatID)
		if !verdict.Accessible {
			return Result{}, &AccessDeniedError{Reason: verdict.Reason}
		}
	}

	text := markup.Transcode(req.BodyHTML)
	refs := p.usableImages(req.BodyHTML)
	body := composeBody(req.Title, text)

	if verdict := markup.Validate(body, len(refs) > 0); !verdict.Valid {
		// The provider is the authority on limits; warn and let it decide.
		p.logger.Warn("content exceeds channel limit",
			"limit_type", verdict.LimitType,
			"limit", verdict.Limit,
			"length", verdict.Length,
		)
	}

	span.SetAttributes(attribute.Int("images", len(refs)))

	var responses []telegram.Message
	for i, ref := range refs {
		caption := ""
		if i == 0 {
			caption = body
		}
		msg, err := p.sendPhoto(ctx, client, chatID, ref, caption)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, &ProviderError{Op: "sendPhoto", Err: ctx.Err()}
			}
			// Skipped, not propagated. A failed first send drops the caption
			// for the whole dispatch; accepted behavior.
			p.logger.Warn("photo send failed, skipping",
				"src", truncateSrc(ref.Raw),
				"error", err,
			)
			continue
		}
		responses = append(responses, *msg)
	}

	if len(responses) == 0 {
		msg, err := client.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:                chatID,
			Text:                  body,
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		})
		if err != nil {
			return Result{}, &ProviderError{Op: "sendMessage", Err: err}
		}
		responses = append(responses, *msg)
	}

	p.logger.Info("note published", "chat_id", chatID, "messages", len(responses))
	return Result{OK: true, Responses: responses}, nil
}

// resolve fills empty credentials from the configured defaults.
func (p *Publisher) resolve(token, chatID string) (string, string) {
	if token == "" {
		token = p.defaults.Token
	}
	if chatID == "" {
		chatID = p.defaults.ChatID
	}
	return token, chatID
}

// usableImages extracts and classifies the image references of the body,
// keeping only those that can actually be sent. Undecodable embedded images
// and unrecognized sources are logged and dropped.
func (p *Publisher) usableImages(bodyHTML string) []markup.ImageRef {
	srcs := markup.ExtractImageSources(bodyHTML)

	var refs []markup.ImageRef
	for _, src := range srcs {
		ref, err := markup.ClassifyImageSource(src)
		if err != nil {
			p.logger.Warn("embedded image decode failed, skipping", "error", err)
			continue
		}
		if ref.Kind == markup.RefUnrecognized {
			p.logger.Debug("unrecognized image source, skipping", "src", truncateSrc(src))
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// sendPhoto issues one sendPhoto call: multipart upload for embedded bytes,
// URL field for remote references.
func (p *Publisher) sendPhoto(ctx context.Context, client *telegram.Client, chatID string, ref markup.ImageRef, caption string) (*telegram.Message, error) {
	parseMode := ""
	if caption != "" {
		parseMode = "HTML"
	}

	switch ref.Kind {
	case markup.RefEmbedded:
		return client.UploadPhoto(ctx, telegram.PhotoUpload{
			ChatID:    chatID,
			Caption:   caption,
			ParseMode: parseMode,
			FileName:  fileNameForMIME(ref.MIME),
			MIME:      ref.MIME,
			Data:      ref.Data,
		})
	case markup.RefRemote:
		return client.SendPhoto(ctx, telegram.SendPhotoRequest{
			ChatID:    chatID,
			Photo:     ref.URL,
			Caption:   caption,
			ParseMode: parseMode,
		})
	}
	return nil, fmt.Errorf("publish: unsendable image kind %v", ref.Kind)
}

// composeBody prepends the title as a bold header line when present.
func composeBody(title, text string) string {
	if title == "" {
		return text
	}
	return "<b>" + html.EscapeString(title) + "</b>\n\n" + text
}

// fileNameForMIME picks an upload filename matching the embedded image type.
func fileNameForMIME(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "photo.jpg"
	case "image/gif":
		return "photo.gif"
	case "image/webp":
		return "photo.webp"
	default:
		return "photo.png"
	}
}

// truncateSrc keeps log lines bounded: data URLs can be megabytes long.
func truncateSrc(src string) string {
	const max = 64
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}
