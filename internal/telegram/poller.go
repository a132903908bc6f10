package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-downloader-bot/internal/bot"
)

// Dispatcher receives translated events
type Dispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) error
}

// Intake is told the outcome of every dispatch. Accepted runs right after an
// event was queued, before its conversation gets to it.
type Intake interface {
	Accepted(ctx context.Context, ev bot.Event)
	Busy(ctx context.Context, ev bot.Event)
}

// ErrUpdatesClosed is returned by Poll when the update stream ends on its own
var ErrUpdatesClosed = errors.New("telegram update stream closed")

// Poll long-polls updates until ctx ends and reports each dispatch to intake
func (c *Client) Poll(ctx context.Context, dispatcher Dispatcher, intake Intake) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeout
	updates := c.api.GetUpdatesChan(u)
	defer c.api.StopReceivingUpdates()

	c.logger.Info("polling for updates", "bot", c.Username())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			ev, ok := Translate(update)
			if !ok {
				continue
			}
			if err := dispatcher.Dispatch(ctx, ev); err != nil {
				if ctx.Err() != nil {
					continue
				}
				c.logger.Warn("event rejected", "chat_id", ev.ChatID, "kind", ev.Kind, "error", err)
				intake.Busy(ctx, ev)
				continue
			}
			intake.Accepted(ctx, ev)
		}
	}
}

// Translate converts an update into an event. Updates the bot does not
// handle (edits, channel posts, media without text) report false.
func Translate(update tgbotapi.Update) (bot.Event, bool) {
	if q := update.CallbackQuery; q != nil {
		if q.Message == nil || q.Message.Chat == nil {
			return bot.Event{}, false
		}
		ev := bot.Event{
			Kind:       bot.EventCallback,
			ChatID:     q.Message.Chat.ID,
			MessageID:  q.Message.MessageID,
			CallbackID: q.ID,
			Data:       q.Data,
		}
		if q.From != nil {
			ev.UserID = q.From.ID
			ev.UserName = q.From.FirstName
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Event{}, false
	}

	ev := bot.Event{
		Kind:      bot.EventText,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
		ev.UserName = msg.From.FirstName
	}
	if msg.IsCommand() {
		ev.Kind = bot.EventCommand
		ev.Command = msg.Command()
		ev.Text = msg.CommandArguments()
	}
	return ev, true
}
