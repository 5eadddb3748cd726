package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/models"
)

type mockBot struct {
	calls    int
	errs     []error
	captured []tgbotapi.Chattable
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.captured = append(m.captured, c)
	idx := m.calls
	m.calls++
	if idx < len(m.errs) && m.errs[idx] != nil {
		return tgbotapi.Message{}, m.errs[idx]
	}
	return tgbotapi.Message{MessageID: 1}, nil
}

func newTestClient(bot botAPI, channel string) *Client {
	return &Client{
		bot:        bot,
		channel:    channel,
		attempts:   3,
		retryDelay: time.Millisecond,
	}
}

func TestSendDelivered(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{}
	client := newTestClient(bot, "@quakealerts")

	outcome, err := client.Send(context.Background(), "test alert")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if outcome != models.Delivered {
		t.Errorf("Expected Delivered, got %v", outcome)
	}
	if bot.calls != 1 {
		t.Errorf("Expected 1 send, got %d", bot.calls)
	}

	msg, ok := bot.captured[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("Expected MessageConfig, got %T", bot.captured[0])
	}
	if msg.ChannelUsername != "@quakealerts" {
		t.Errorf("Expected channel username, got %q", msg.ChannelUsername)
	}
	if msg.Text != "test alert" {
		t.Errorf("Expected message text, got %q", msg.Text)
	}
	if msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("Expected MarkdownV2 parse mode, got %q", msg.ParseMode)
	}
	if !msg.DisableWebPagePreview {
		t.Error("Expected web page preview disabled")
	}
}

func TestSendNumericChannelID(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{}
	client := newTestClient(bot, "-1001234567890")

	if _, err := client.Send(context.Background(), "test alert"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	msg := bot.captured[0].(tgbotapi.MessageConfig)
	if msg.ChatID != -1001234567890 {
		t.Errorf("Expected numeric chat id, got %d", msg.ChatID)
	}
	if msg.ChannelUsername != "" {
		t.Errorf("Expected no channel username, got %q", msg.ChannelUsername)
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{errs: []error{
		errors.New("gateway timeout"),
		errors.New("gateway timeout"),
		nil,
	}}
	client := newTestClient(bot, "@quakealerts")

	outcome, err := client.Send(context.Background(), "test alert")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if outcome != models.Delivered {
		t.Errorf("Expected Delivered, got %v", outcome)
	}
	if bot.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", bot.calls)
	}
}

func TestSendExhaustsAttempts(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{errs: []error{
		errors.New("gateway timeout"),
		errors.New("gateway timeout"),
		errors.New("gateway timeout"),
	}}
	client := newTestClient(bot, "@quakealerts")

	outcome, err := client.Send(context.Background(), "test alert")
	if !errors.Is(err, apperrors.ErrRetryExhausted) {
		t.Fatalf("Expected retry exhausted error, got %v", err)
	}
	if outcome != models.TransientFailure {
		t.Errorf("Expected TransientFailure, got %v", outcome)
	}
	if bot.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", bot.calls)
	}
}

func TestSendBlockedStopsImmediately(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{errs: []error{
		&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"},
	}}
	client := newTestClient(bot, "@quakealerts")

	outcome, err := client.Send(context.Background(), "test alert")
	if !errors.Is(err, apperrors.ErrRecipientBlocked) {
		t.Fatalf("Expected recipient blocked error, got %v", err)
	}
	if outcome != models.PermanentFailure {
		t.Errorf("Expected PermanentFailure, got %v", outcome)
	}
	if bot.calls != 1 {
		t.Errorf("Expected no retries for blocked recipient, got %d attempts", bot.calls)
	}
}

func TestSendStopsOnCancelledContext(t *testing.T) {
	logger.Init("error", "text")

	bot := &mockBot{errs: []error{
		errors.New("gateway timeout"),
		errors.New("gateway timeout"),
		errors.New("gateway timeout"),
	}}
	client := &Client{
		bot:        bot,
		channel:    "@quakealerts",
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome, err := client.Send(ctx, "test alert")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context deadline error, got %v", err)
	}
	if outcome != models.TransientFailure {
		t.Errorf("Expected TransientFailure, got %v", outcome)
	}
	if bot.calls != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", bot.calls)
	}
}

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"API 403", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked"}, true},
		{"API 400", &tgbotapi.Error{Code: 400, Message: "Bad Request: message too long"}, false},
		{"Blocked in message", errors.New("bot was Blocked by admin"), true},
		{"Kicked in message", errors.New("bot was kicked from the channel chat"), true},
		{"Wrapped API 403", fmt.Errorf("send: %w", &tgbotapi.Error{Code: 403, Message: "Forbidden"}), true},
		{"Plain transient", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBlocked(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
