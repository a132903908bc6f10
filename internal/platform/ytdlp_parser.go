package platform

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Default values
const (
	DefaultTitle    = "Unknown Title"
	DefaultUploader = "Unknown"
	DefaultDuration = "Unknown"
)

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
	TimeFormat       = "%02d"
)

// infoJSON holds the subset of the yt-dlp info dict the bot reads
type infoJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Duration  *float64 `json:"duration"`
	Thumbnail string   `json:"thumbnail"`
	Uploader  string   `json:"uploader"`
	Channel   string   `json:"channel"`
	Filename  string   `json:"filename"`
	Type      string   `json:"_type"`
}

// ParseVideoInfo parses the JSON-lines output of yt-dlp --dump-json or
// --print-json. The last object carrying an id wins; lines that are not JSON
// (warnings, progress) are ignored.
func ParseVideoInfo(output string) (*model.VideoInfo, error) {
	var found *infoJSON
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var data infoJSON
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			continue
		}
		if data.ID == "" {
			continue
		}
		found = &data
	}

	if found == nil {
		return nil, fmt.Errorf("no media information in extractor output")
	}
	if found.Type == "playlist" {
		return nil, fmt.Errorf("URL points to a playlist, not a single video")
	}

	info := &model.VideoInfo{
		ID:        found.ID,
		Title:     found.Title,
		Thumbnail: found.Thumbnail,
		Uploader:  found.Uploader,
	}
	if info.Title == "" {
		info.Title = DefaultTitle
	}
	if info.Uploader == "" {
		info.Uploader = found.Channel
	}
	if info.Uploader == "" {
		info.Uploader = DefaultUploader
	}
	if found.Duration != nil && *found.Duration > 0 {
		info.DurationSeconds = int(math.Round(*found.Duration))
	}
	return info, nil
}

// FormatDuration formats seconds into HH:MM:SS format
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return DefaultDuration
	}
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	if hours > 0 {
		return fmt.Sprintf(TimeFormat+":"+TimeFormat+":"+TimeFormat, hours, minutes, secs)
	}
	return fmt.Sprintf(TimeFormat+":"+TimeFormat, minutes, secs)
}
