package bot

import (
	"strings"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// EventKind tells the orchestrator how to route an event
type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	}
	return "unknown"
}

// Event is one inbound update of a conversation
type Event struct {
	Kind      EventKind
	ChatID    int64
	UserID    int64
	UserName  string // first name shown in greetings
	MessageID int    // the message itself, or the message a callback belongs to
	Text      string
	Command   string // without the leading slash
	// Callback fields
	CallbackID string
	Data       string
}

// CallbackPrefix tags quality selection payloads
const CallbackPrefix = "quality|"

// CallbackData builds the payload of a quality button
func CallbackData(quality model.Quality) string {
	return CallbackPrefix + quality.String()
}

// ParseCallbackData extracts the tier of a quality payload. Payloads with
// other tags, or with a tier that does not parse, report false.
func ParseCallbackData(data string) (model.Quality, bool) {
	value, ok := strings.CutPrefix(data, CallbackPrefix)
	if !ok {
		return "", false
	}
	quality, err := model.ParseQuality(value)
	if err != nil {
		return "", false
	}
	return quality, true
}
