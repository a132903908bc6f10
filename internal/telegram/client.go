// Package telegram adapts the Telegram Bot API to the orchestrator: it turns
// updates into bot events and implements bot.Messenger.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-downloader-bot/internal/bot"
)

// PollTimeout is the long polling timeout in seconds
const PollTimeout = 60

const (
	// DefaultRequestTimeout bounds API calls and uploads when none is configured
	DefaultRequestTimeout = 120 * time.Second
	// pollSlack is added to PollTimeout for the getUpdates HTTP timeout
	pollSlack = 10 * time.Second

	methodGetUpdates = "getUpdates"
)

// Client wraps the Bot API
type Client struct {
	api            *tgbotapi.BotAPI
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewClient authenticates with token against the public Bot API
func NewClient(token string, requestTimeout time.Duration, logger *slog.Logger) (*Client, error) {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint, requestTimeout, logger)
}

// NewClientWithEndpoint authenticates against endpoint, a format string with
// token and method placeholders. requestTimeout bounds every call except long
// polling, which gets PollTimeout plus some slack.
func NewClientWithEndpoint(token, endpoint string, requestTimeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	httpClient := &splitClient{
		poll:    &http.Client{Timeout: PollTimeout*time.Second + pollSlack},
		request: &http.Client{Timeout: requestTimeout},
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	return &Client{
		api:            api,
		requestTimeout: requestTimeout,
		logger:         logger.With("component", "telegram"),
	}, nil
}

// splitClient sends getUpdates through the long polling client and every
// other method through the request client
type splitClient struct {
	poll    *http.Client
	request *http.Client
}

func (c *splitClient) Do(req *http.Request) (*http.Response, error) {
	if strings.HasSuffix(req.URL.Path, "/"+methodGetUpdates) {
		return c.poll.Do(req)
	}
	return c.request.Do(req)
}

// Username returns the bot account name
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Send sends a text message
func (c *Client) Send(ctx context.Context, chatID int64, msg bot.OutMessage) (bot.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return bot.MessageRef{}, err
	}

	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ReplyToMessageID = msg.ReplyTo
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	if markup := toMarkup(msg.Keyboard); markup != nil {
		cfg.ReplyMarkup = *markup
	}

	sent, err := c.api.Send(cfg)
	if err != nil {
		return bot.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return bot.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit replaces the text and keyboard of a sent message
func (c *Client) Edit(ctx context.Context, ref bot.MessageRef, msg bot.OutMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, msg.Text)
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	cfg.ReplyMarkup = toMarkup(msg.Keyboard)

	if _, err := c.api.Request(cfg); err != nil {
		// Editing to identical content is rejected by the API
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// Delete removes a message
func (c *Client) Delete(ctx context.Context, ref bot.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// SendAudio uploads an audio file
func (c *Client) SendAudio(ctx context.Context, upload bot.Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewAudio(upload.ChatID, tgbotapi.FilePath(upload.FilePath))
	cfg.Title = upload.Title
	cfg.Performer = upload.Performer
	cfg.Duration = upload.DurationSeconds
	cfg.Caption = upload.Caption
	cfg.ParseMode = tgbotapi.ModeHTML

	return c.upload(cfg, upload)
}

// SendVideo uploads a video file with the streaming hint
func (c *Client) SendVideo(ctx context.Context, upload bot.Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewVideo(upload.ChatID, tgbotapi.FilePath(upload.FilePath))
	cfg.Duration = upload.DurationSeconds
	cfg.Caption = upload.Caption
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.SupportsStreaming = true

	return c.upload(cfg, upload)
}

// upload returns once the transfer has ended; only the request client
// timeout bounds it. ctx is checked before the transfer starts.
func (c *Client) upload(cfg tgbotapi.Chattable, upload bot.Upload) error {
	started := time.Now()
	if _, err := c.api.Send(cfg); err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return fmt.Errorf("upload of %s timed out after %s", upload.Title, c.requestTimeout)
		}
		return fmt.Errorf("failed to upload %s: %w", upload.Title, err)
	}
	c.logger.Debug("uploaded file", "chat_id", upload.ChatID, "path", upload.FilePath, "elapsed", time.Since(started))
	return nil
}

// toMarkup converts a keyboard; an empty keyboard yields nil
func toMarkup(keyboard bot.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
