package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rajasatyajit/QuakeAlert/config"
	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/models"
	"github.com/rajasatyajit/QuakeAlert/pkg/utils"
)

// blockedMarkers are the phrases Telegram puts in errors for a recipient
// the bot can never reach again.
var blockedMarkers = []string{"blocked", "deactivated", "kicked"}

// botAPI is the slice of the bot client the sender needs
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client delivers alert messages to a Telegram channel
type Client struct {
	bot        botAPI
	channel    string
	attempts   int
	retryDelay time.Duration
}

// NewClient authenticates the bot against the Telegram API
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth failed: %w", err)
	}
	logger.Info("Telegram bot authorized", "account", bot.Self.UserName)

	return &Client{
		bot:        bot,
		channel:    cfg.ChannelID,
		attempts:   cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Send posts one message to the configured channel. Delivered and
// PermanentFailure are final for the entry; TransientFailure means every
// attempt failed on something retryable and the entry should come back
// next cycle.
func (c *Client) Send(ctx context.Context, text string) (models.DeliveryOutcome, error) {
	msg := c.newMessage(text)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return models.TransientFailure, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		_, err := c.bot.Send(msg)
		if err == nil {
			return models.Delivered, nil
		}
		lastErr = err

		if isBlocked(err) {
			logger.Error("Recipient blocked the bot", "channel", c.channel)
			return models.PermanentFailure, apperrors.ErrRecipientBlocked
		}
		logger.Warn("Telegram send attempt failed", "attempt", attempt, "error", err)
	}

	return models.TransientFailure, fmt.Errorf("%w: %v", apperrors.ErrRetryExhausted, lastErr)
}

// newMessage builds the channel message. The channel may be configured
// as an @username or as a numeric chat id.
func (c *Client) newMessage(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(c.channel, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(c.channel, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	return msg
}

// isBlocked detects an unrecoverable recipient state. The API reports a
// blocked or kicked bot as a 403, and some error paths only say so in
// the message text.
func isBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return true
	}
	return utils.ContainsAny(strings.ToLower(err.Error()), blockedMarkers)
}
