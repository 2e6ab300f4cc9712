// Package telegram is a thin HTTP client for the subset of the Telegram Bot
// API needed to publish notes: sendMessage, sendPhoto, getMe, and getChat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	neturl "net/url"
	"time"
)

const (
	// DefaultBaseURL is the production Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 10 << 20 // prevent unbounded reads from API responses
)

// Client is a thin HTTP wrapper around the Telegram Bot API. A single call
// maps to a single HTTP request; there is no retry logic at this layer, the
// caller decides whether to re-invoke.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bot API client. baseURL defaults to DefaultBaseURL and
// httpClient to one with a 30 s per-call timeout; pass a shared *http.Client
// to reuse the connection pool across clients.
func NewClient(token, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{token: token, baseURL: baseURL, http: httpClient}
}

// do sends a JSON POST request to the given Bot API method and decodes the
// response envelope.
func do[T any](ctx context.Context, c *Client, method string, payload any) (*T, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("telegram: marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	contentType := ""
	if payload != nil {
		contentType = "application/json"
	}
	return roundTrip[T](ctx, c, method, contentType, body)
}

// roundTrip performs one HTTP call against a Bot API method and decodes the
// APIResponse envelope. A non-ok envelope becomes an *APIError.
func roundTrip[T any](ctx context.Context, c *Client, method, contentType string, body io.Reader) (*T, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL embeds the token; unwrap url.Error so it never reaches
		// error messages.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, err)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var apiResp APIResponse[T]
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("telegram: decode %s response (status %d): %w", method, resp.StatusCode, err)
	}

	if !apiResp.OK {
		return nil, &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	return &apiResp.Result, nil
}

// SendMessageRequest is the request body for the sendMessage method.
// ChatID accepts a numeric chat id or an @channel username.
type SendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// SendPhotoRequest is the request body for the sendPhoto method with a
// remotely hosted photo URL. Telegram fetches the URL itself.
type SendPhotoRequest struct {
	ChatID    string `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// PhotoUpload carries raw image bytes for a multipart sendPhoto call.
type PhotoUpload struct {
	ChatID    string
	Caption   string
	ParseMode string
	FileName  string
	MIME      string
	Data      []byte
}

// getChatRequest is the request body for the getChat method.
type getChatRequest struct {
	ChatID string `json:"chat_id"`
}

// GetMe returns the bot's own user record, confirming the token is valid.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return do[User](ctx, c, "getMe", nil)
}

// GetChat returns metadata for a chat the bot can see.
func (c *Client) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	return do[Chat](ctx, c, "getChat", getChatRequest{ChatID: chatID})
}

// SendMessage sends a text message to the specified chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	return do[Message](ctx, c, "sendMessage", req)
}

// SendPhoto sends a photo by URL to the specified chat.
func (c *Client) SendPhoto(ctx context.Context, req SendPhotoRequest) (*Message, error) {
	return do[Message](ctx, c, "sendPhoto", req)
}

// UploadPhoto sends a photo from raw bytes using a multipart request.
func (c *Client) UploadPhoto(ctx context.Context, up PhotoUpload) (*Message, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chat_id":    up.ChatID,
		"caption":    up.Caption,
		"parse_mode": up.ParseMode,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("telegram: write sendPhoto field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, up.FileName))
	if up.MIME != "" {
		header.Set("Content-Type", up.MIME)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("telegram: create sendPhoto part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, fmt.Errorf("telegram: write sendPhoto bytes: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("telegram: finalize sendPhoto body: %w", err)
	}

	return roundTrip[Message](ctx, c, "sendPhoto", w.FormDataContentType(), &buf)
}
