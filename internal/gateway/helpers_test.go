package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/telepress/telepress/internal/config"
	"github.com/telepress/telepress/internal/media"
	"github.com/telepress/telepress/internal/publish"
	"github.com/telepress/telepress/internal/store"
)

// fakeBotAPI answers any Bot API method with a plausible ok envelope.
// Methods listed in fail get an error envelope instead.
type fakeBotAPI struct {
	fail map[string]bool
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		method := parts[len(parts)-1]

		w.Header().Set("Content-Type", "application/json")
		if f.fail[method] {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": false, "error_code": 400, "description": "Bad Request: chat not found",
			})
			return
		}

		var result any
		switch method {
		case "getMe":
			result = map[string]any{"id": 42, "is_bot": true, "username": "telepress_bot"}
		case "getChat":
			result = map[string]any{"id": -100123, "type": "channel", "title": "Test Channel"}
		default:
			result = map[string]any{
				"message_id": 7,
				"chat":       map[string]any{"id": -100123, "type": "channel"},
				"date":       1700000000,
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	})
}

// newTestGateway builds a gateway over temp storage and a fake Bot API.
// The returned http.Handler is the full router.
func newTestGateway(t *testing.T, mutate func(*config.Config)) (*Gateway, http.Handler) {
	t.Helper()

	api := &fakeBotAPI{}
	apiServer := httptest.NewServer(api.handler())
	t.Cleanup(apiServer.Close)

	var cfg config.Config
	cfg.Telegram.Token = "123456:TESTTOKEN"
	cfg.Telegram.ChatID = "@testchannel"
	cfg.Telegram.APIURL = apiServer.URL
	if mutate != nil {
		mutate(&cfg)
	}

	logger := slog.New(slog.DiscardHandler)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ms, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("opening media store: %v", err)
	}

	pub := publish.New(publish.Defaults{
		Token:  cfg.Telegram.Token,
		ChatID: cfg.Telegram.ChatID,
	}, cfg.Telegram.APIURL, logger)

	g := New(&cfg, st, ms, pub, logger)
	return g, g.buildRouter()
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out when it is non-nil.
func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if out != nil && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response: %v\nbody: %s", method, path, err, rr.Body.String())
		}
	}
	return rr
}
