package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrPlatformAPI means a messaging-platform call failed. These are
// logged and never retried automatically.
var ErrPlatformAPI = errors.New("platform api error")

// Long-poll tuning for the join-request listener
const (
	telegramAPIBase     = "https://api.telegram.org"
	telegramPollSeconds = 50
	telegramCallTimeout = 10 * time.Second
)

// ApprovalRequest is one inbound join request from the platform
type ApprovalRequest struct {
	ChatID         int64
	PlatformUserID int64
	DisplayName    string
	Handle         string
	ChatTitle      string
	InviteLink     string
}

// TelegramService speaks the Telegram Bot API: it long-polls for chat
// join requests and exposes the approve / direct-message / invite-link
// calls the workflow needs. Every call carries a bounded timeout.
type TelegramService struct {
	BotAPIKey string
	ChatID    int64
	Log       zerolog.Logger

	// APIBase overrides the Bot API endpoint, used by tests
	APIBase string

	clientOnce sync.Once
	client     *http.Client
}

// httpClient lazily builds the shared client. The long-poll goroutine
// and request handlers call in concurrently, so the initialization is
// guarded.
func (s *TelegramService) httpClient() *http.Client {
	s.clientOnce.Do(func() {
		// The long poll holds the request open for telegramPollSeconds,
		// so the transport timeout must sit above it
		s.client = &http.Client{Timeout: time.Duration(telegramPollSeconds+10) * time.Second}
	})
	return s.client
}

func (s *TelegramService) apiBase() string {
	if s.APIBase != "" {
		return s.APIBase
	}
	return telegramAPIBase
}

// call performs one Bot API method call and decodes the result envelope
func (s *TelegramService) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase(), s.BotAPIKey, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformAPI, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformAPI, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s: %s", ErrPlatformAPI, method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%w: %v", ErrPlatformAPI, err)
		}
	}
	return nil
}

// Approve accepts a pending join request on the platform
func (s *TelegramService) Approve(ctx context.Context, chatID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, telegramCallTimeout)
	defer cancel()
	return s.call(ctx, "approveChatJoinRequest", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	}, nil)
}

// SendDirectMessage sends a private text message to a user
func (s *TelegramService) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, telegramCallTimeout)
	defer cancel()
	return s.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	}, nil)
}

// ExportInviteLink fetches the group's primary invite link
func (s *TelegramService) ExportInviteLink(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, telegramCallTimeout)
	defer cancel()
	var link string
	if err := s.call(ctx, "exportChatInviteLink", map[string]interface{}{
		"chat_id": s.ChatID,
	}, &link); err != nil {
		return "", err
	}
	return link, nil
}

// Bot API payload shapes, limited to the fields the listener reads

type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type tgChat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type tgInviteLink struct {
	InviteLink string `json:"invite_link"`
}

type tgChatJoinRequest struct {
	Chat       tgChat        `json:"chat"`
	From       tgUser        `json:"from"`
	InviteLink *tgInviteLink `json:"invite_link"`
}

type tgUpdate struct {
	UpdateID        int64              `json:"update_id"`
	ChatJoinRequest *tgChatJoinRequest `json:"chat_join_request"`
}

// Listen starts the long-poll loop in its own goroutine and returns the
// stream of join requests for the configured chat. The channel closes
// when the context is cancelled. Poll errors back off and retry; they
// never kill the listener.
func (s *TelegramService) Listen(ctx context.Context) <-chan ApprovalRequest {
	out := make(chan ApprovalRequest)
	go func() {
		defer close(out)
		var offset int64
		for {
			updates, err := s.getUpdates(ctx, offset)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.Log.Warn().Err(err).Msg("getUpdates failed, retrying")
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}
			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1
				}
				jr := update.ChatJoinRequest
				if jr == nil || jr.Chat.ID != s.ChatID {
					continue
				}
				req := ApprovalRequest{
					ChatID:         jr.Chat.ID,
					PlatformUserID: jr.From.ID,
					DisplayName:    strings.TrimSpace(jr.From.FirstName + " " + jr.From.LastName),
					Handle:         jr.From.Username,
					ChatTitle:      jr.Chat.Title,
				}
				if jr.InviteLink != nil {
					req.InviteLink = jr.InviteLink.InviteLink
				}
				select {
				case <-ctx.Done():
					return
				case out <- req:
				}
			}
		}
	}()
	return out
}

func (s *TelegramService) getUpdates(ctx context.Context, offset int64) ([]tgUpdate, error) {
	var updates []tgUpdate
	err := s.call(ctx, "getUpdates", map[string]interface{}{
		"offset":          offset,
		"timeout":         telegramPollSeconds,
		"allowed_updates": []string{"chat_join_request"},
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}
