package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/telepress/telepress/internal/telegram"
)

// verifyServer serves getMe and getChat with configurable getChat responses.
func verifyServer(t *testing.T, chatStatus int, chatBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":10,"is_bot":true,"first_name":"B","username":"b_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/getChat"):
			w.WriteHeader(chatStatus)
			_, _ = w.Write([]byte(chatBody))
		default:
			t.Errorf("unexpected call: %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyAccessOK(t *testing.T) {
	srv := verifyServer(t, http.StatusOK,
		`{"ok":true,"result":{"id":-100555,"type":"channel","title":"News","username":"newschan"}}`)

	client := telegram.NewClient("123:abc", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@newschan")

	if !verdict.Accessible {
		t.Fatalf("Accessible = false, reason %q", verdict.Reason)
	}
	if verdict.Chat == nil || verdict.Chat.ID != -100555 {
		t.Errorf("Chat = %+v, want id -100555", verdict.Chat)
	}
	if verdict.Bot == nil || verdict.Bot.Username != "b_bot" {
		t.Errorf("Bot = %+v, want username b_bot", verdict.Bot)
	}
}

func TestVerifyAccessChatNotFound(t *testing.T) {
	srv := verifyServer(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)

	client := telegram.NewClient("123:abc", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@nope")

	if verdict.Accessible {
		t.Fatal("Accessible = true, want false")
	}
	if verdict.Reason != deniedReason {
		t.Errorf("Reason = %q, want the fixed membership message", verdict.Reason)
	}
}

func TestVerifyAccessBotKicked(t *testing.T) {
	srv := verifyServer(t, http.StatusForbidden,
		`{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked from the channel chat"}`)

	client := telegram.NewClient("123:abc", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@kicked")

	if verdict.Accessible {
		t.Fatal("Accessible = true, want false")
	}
	if verdict.Reason != deniedReason {
		t.Errorf("Reason = %q, want the fixed membership message", verdict.Reason)
	}
}

func TestVerifyAccessOtherProviderError(t *testing.T) {
	srv := verifyServer(t, http.StatusInternalServerError,
		`{"ok":false,"error_code":500,"description":"Internal Server Error"}`)

	client := telegram.NewClient("123:abc", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@chan")

	if verdict.Accessible {
		t.Fatal("Accessible = true, want false")
	}
	if verdict.Reason == deniedReason {
		t.Error("Reason is the membership message, want underlying detail")
	}
	if !strings.Contains(verdict.Reason, "500") {
		t.Errorf("Reason = %q, want underlying failure detail", verdict.Reason)
	}
}

func TestVerifyAccessInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	client := telegram.NewClient("bad", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@chan")

	if verdict.Accessible {
		t.Fatal("Accessible = true, want false")
	}
	if !strings.Contains(verdict.Reason, "401") {
		t.Errorf("Reason = %q, want 401 detail", verdict.Reason)
	}
}

func TestVerifyAccessTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := telegram.NewClient("123:abc", srv.URL, nil)
	verdict := VerifyAccess(context.Background(), client, "@chan")

	if verdict.Accessible {
		t.Fatal("Accessible = true, want false")
	}
	if verdict.Reason == "" {
		t.Error("Reason empty, want transport failure detail")
	}
}
