package bot

import (
	"fmt"
	"html"
	"strconv"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Reply texts
const (
	TextInvalidURL   = "Please send a valid URL starting with http:// or https://"
	TextFetchingInfo = "Fetching video info..."
	TextExpired      = "❌ Error: Download link expired or not found. Please send the link again."
	TextUploading    = "Uploading to Telegram..."
	TextRateLimited  = "⏳ Too many requests. Please wait a moment and try again."
	TextBusy         = "⏳ Still working on your previous requests. Please wait."
	TextPlaylistNote = "ℹ️ Playlist links are downloaded as a single video."
	TextHelp         = "Simply send me a valid link from a supported video platform (YouTube, Twitter, Instagram, etc.).\n" +
		"I will download it in 720p (or best available) and send it to you."
)

// StartText greets a user by an HTML mention
func StartText(userID int64, name string) string {
	return fmt.Sprintf("Hi %s! \n"+
		"Send me a video URL and I will try to download it for you.\n"+
		"Supported Command: \n"+
		"/help - Show help message\n"+
		"/stats - Show bot statistics", mentionHTML(userID, name))
}

// StatsText renders the counters as plain text
func StatsText(stats model.StatsSnapshot) string {
	return fmt.Sprintf("📊 Bot Statistics\n\n👥 Unique Users: %d\n⬇️ Total Downloads: %d",
		stats.UniqueUsers, stats.TotalDownloads)
}

// QualityPrompt is the HTML prompt shown above the quality buttons
func QualityPrompt(title string) string {
	return fmt.Sprintf("🎬 <b>%s</b>\n\nSelect download quality:", html.EscapeString(title))
}

// QualityKeyboard lays out the five tiers in rows of two
func QualityKeyboard() Keyboard {
	qualities := model.Qualities()
	var keyboard Keyboard
	for i := 0; i < len(qualities); i += 2 {
		var row []Button
		for _, q := range qualities[i:min(i+2, len(qualities))] {
			row = append(row, Button{Text: q.Label(), Data: CallbackData(q)})
		}
		keyboard = append(keyboard, row)
	}
	return keyboard
}

// QueuedText confirms the selection (HTML)
func QueuedText(quality model.Quality) string {
	return fmt.Sprintf("Queueing download for <b>%s</b>...", html.EscapeString(quality.String()))
}

// LargeFileText warns about a file above the soft limit (plain text)
func LargeFileText(title string, sizeMiB float64) string {
	return fmt.Sprintf("Video downloaded!\nTitle: %s\nSize: %.2f MB\n⚠️ File is large, uploading now...", title, sizeMiB)
}

// AudioCaption is the HTML caption of an audio upload
func AudioCaption(title string) string {
	return fmt.Sprintf("🎵 <b>%s</b>", html.EscapeString(title))
}

// VideoCaption is the HTML caption of a video upload
func VideoCaption(title string, quality model.Quality) string {
	return fmt.Sprintf("🎥 <b>%s</b> (%s)", html.EscapeString(title), html.EscapeString(quality.String()))
}

// MetadataErrorText reports a failed probe
func MetadataErrorText(err error) string {
	return "❌ Error: " + err.Error()
}

// DownloadFailedText reports a failed download or upload
func DownloadFailedText(err error) string {
	return "❌ Download failed: " + err.Error()
}

func mentionHTML(userID int64, name string) string {
	if name == "" {
		name = "there"
	}
	return `<a href="tg://user?id=` + strconv.FormatInt(userID, 10) + `">` + html.EscapeString(name) + `</a>`
}
