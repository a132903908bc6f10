package bot

import (
	"context"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string
}

// Keyboard is a list of button rows
type Keyboard [][]Button

// MessageRef identifies a sent message
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// OutMessage is a text message or the new content of an edited one
type OutMessage struct {
	Text     string
	HTML     bool
	Keyboard Keyboard
	ReplyTo  int // message id, 0 for none
}

// Upload describes a media file sent to a chat
type Upload struct {
	ChatID          int64
	FilePath        string
	Title           string
	Performer       string
	Caption         string // HTML
	DurationSeconds int
}

// Messenger is the outbound side of the chat platform. SendAudio and
// SendVideo return once the transfer has ended: nil means the file was
// delivered, an error means it was not.
type Messenger interface {
	Send(ctx context.Context, chatID int64, msg OutMessage) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg OutMessage) error
	Delete(ctx context.Context, ref MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendAudio(ctx context.Context, upload Upload) error
	SendVideo(ctx context.Context, upload Upload) error
}

// Runner executes blocking work off the conversation goroutine
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// UsageCounter records users and completed downloads
type UsageCounter interface {
	TrackUser(ctx context.Context, id int64) bool
	IncrementDownload(ctx context.Context)
	Stats() model.StatsSnapshot
}

// PendingStore carries the submitted URL until a quality is picked
type PendingStore interface {
	SetPendingURL(chatID int64, url string)
	TakePendingURL(chatID int64) (string, bool)
	Clear(chatID int64)
}
