package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBotAPIStub serves canned Bot API responses per method name
func newBotAPIStub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		resp, ok := responses[method]
		if !ok {
			t.Errorf("unexpected Bot API method %q", method)
			resp = `{"ok":false,"description":"unexpected method"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}))
}

func newTestTelegram(t *testing.T, responses map[string]string) *TelegramService {
	t.Helper()
	server := newBotAPIStub(t, responses)
	t.Cleanup(server.Close)
	return &TelegramService{
		BotAPIKey: "test-token",
		ChatID:    -100,
		Log:       zerolog.Nop(),
		APIBase:   server.URL,
	}
}

func TestApproveSuccess(t *testing.T) {
	tg := newTestTelegram(t, map[string]string{
		"approveChatJoinRequest": `{"ok":true,"result":true}`,
	})
	assert.NoError(t, tg.Approve(context.Background(), -100, 42))
}

func TestApproveAPIFailure(t *testing.T) {
	tg := newTestTelegram(t, map[string]string{
		"approveChatJoinRequest": `{"ok":false,"description":"USER_ALREADY_PARTICIPANT"}`,
	})
	err := tg.Approve(context.Background(), -100, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlatformAPI)
	assert.Contains(t, err.Error(), "USER_ALREADY_PARTICIPANT")
}

func TestConcurrentCallsShareOneClient(t *testing.T) {
	tg := newTestTelegram(t, map[string]string{
		"approveChatJoinRequest": `{"ok":true,"result":true}`,
		"exportChatInviteLink":   `{"ok":true,"result":"https://t.me/+abc"}`,
	})

	// The listener goroutine and request handlers hit the client at the
	// same time in production; every call must see the same instance
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, tg.Approve(context.Background(), -100, 42))
		}()
		go func() {
			defer wg.Done()
			_, err := tg.ExportInviteLink(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestSendDirectMessage(t *testing.T) {
	tg := newTestTelegram(t, map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":1}}`,
	})
	assert.NoError(t, tg.SendDirectMessage(context.Background(), 42, "welcome"))
}

func TestExportInviteLink(t *testing.T) {
	tg := newTestTelegram(t, map[string]string{
		"exportChatInviteLink": `{"ok":true,"result":"https://t.me/+abc123"}`,
	})
	link, err := tg.ExportInviteLink(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/+abc123", link)
}

func TestListenDeliversJoinRequests(t *testing.T) {
	update := map[string]interface{}{
		"update_id": 10,
		"chat_join_request": map[string]interface{}{
			"chat": map[string]interface{}{"id": -100, "title": "Group"},
			"from": map[string]interface{}{
				"id":         42,
				"first_name": "Ann",
				"last_name":  "Example",
				"username":   "ann",
			},
			"invite_link": map[string]interface{}{"invite_link": "https://t.me/+abc"},
		},
	}
	raw, err := json.Marshal(update)
	require.NoError(t, err)

	// First poll returns one update, later polls return nothing
	var polled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getUpdates") && !polled {
			polled = true
			w.Write([]byte(`{"ok":true,"result":[` + string(raw) + `]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	t.Cleanup(server.Close)

	tg := &TelegramService{
		BotAPIKey: "test-token",
		ChatID:    -100,
		Log:       zerolog.Nop(),
		APIBase:   server.URL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	requests := tg.Listen(ctx)
	req := <-requests

	assert.Equal(t, int64(42), req.PlatformUserID)
	assert.Equal(t, "Ann Example", req.DisplayName)
	assert.Equal(t, "ann", req.Handle)
	assert.Equal(t, "Group", req.ChatTitle)
	assert.Equal(t, "https://t.me/+abc", req.InviteLink)
}

func TestListenIgnoresOtherChats(t *testing.T) {
	var polls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			w.Write([]byte(`{"ok":true,"result":[{"update_id":1,"chat_join_request":{"chat":{"id":-999,"title":"Other"},"from":{"id":1,"first_name":"X"}}}]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	t.Cleanup(server.Close)

	tg := &TelegramService{BotAPIKey: "t", ChatID: -100, Log: zerolog.Nop(), APIBase: server.URL}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	requests := tg.Listen(ctx)
	select {
	case req := <-requests:
		t.Fatalf("unexpected request for foreign chat: %+v", req)
	case <-time.After(200 * time.Millisecond):
	}
}
