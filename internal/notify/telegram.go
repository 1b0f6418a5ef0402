// Package notify delivers operator notifications (anomaly reports, feedback
// and contact messages) to an external chat channel.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Notifier sends a short text message to operators.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	telegramMaxRunes       = 4096
)

// Telegram posts messages through the Telegram Bot API sendMessage method.
// A Telegram with an empty token or chat id logs and drops messages.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client
	// Location formats the timestamp line; nil means time.Local.
	Location *time.Location

	now func() time.Time
}

// NewTelegram returns a Telegram notifier with a 10s HTTP timeout.
func NewTelegram(token, chatID string, loc *time.Location) *Telegram {
	return &Telegram{
		Token:    token,
		ChatID:   chatID,
		BaseURL:  defaultTelegramBaseURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Location: loc,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify wraps message in the standard header and sends it. Missing
// credentials are not an error.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if t.Token == "" {
		log.Error().Msg("TELEGRAM_BOT_TOKEN is not set")
		log.Debug().Str("message", message).Msg("notify skipped")
		return nil
	}
	if t.ChatID == "" {
		log.Error().Msg("TELEGRAM_CHAT_ID is not set")
		log.Debug().Str("message", message).Msg("notify skipped")
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.ChatID,
		Text:      t.Format(message),
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	base := t.BaseURL
	if base == "" {
		base = defaultTelegramBaseURL
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// *url.Error embeds the URL, which carries the bot token.
		if inner := errors.Unwrap(err); inner != nil {
			err = inner
		}
		return fmt.Errorf("notify: send telegram message: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: failed to send telegram message: %s", resp.Status)
	}
	return nil
}

// Format renders the message body with the title and timestamp header.
func (t *Telegram) Format(message string) string {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	loc := t.Location
	if loc == nil {
		loc = time.Local
	}
	text := fmt.Sprintf("*Speilsy Nachricht*\n*T:* %s\n\n%s\n", now().In(loc).Format("02.01.2006 - 15:04"), message)
	if utf8.RuneCountInString(text) > telegramMaxRunes {
		r := []rune(text)
		text = string(r[:telegramMaxRunes])
	}
	return text
}
