package model

import (
	"fmt"
	"strings"
	"time"
)

// BytesPerMiB converts byte counts to mebibytes
const BytesPerMiB = 1024 * 1024

// DownloadRequest is the URL a conversation submitted and has not yet
// picked a quality for
type DownloadRequest struct {
	URL         string
	SubmittedAt time.Time
}

// VideoInfo is the result of a metadata probe
type VideoInfo struct {
	ID              string
	Title           string
	DurationSeconds int
	Thumbnail       string
	Uploader        string
}

// DownloadResult describes a media file written to local storage
type DownloadResult struct {
	FilePath        string // must be removed once the request completes
	Title           string
	DurationSeconds int
	Uploader        string
	FileSize        int64 // file size in bytes
}

// SizeMiB returns the file size in mebibytes
func (r *DownloadResult) SizeMiB() float64 {
	return float64(r.FileSize) / BytesPerMiB
}

// Request tracks one download attempt through the state machine
type Request struct {
	ChatID     int64
	UserID     int64
	URL        string
	Quality    Quality
	State      RequestState
	Title      string
	FilePath   string    // local file, empty until the download produced one
	FileSize   int64     // file size in bytes
	LastError  string    // last error message if any
	StartedAt  time.Time // when the request entered Downloading
	FinishedAt time.Time // when the request reached a terminal state
}

// NewRequest creates a request that is waiting for a quality choice
func NewRequest(chatID, userID int64, url string) *Request {
	return &Request{
		ChatID: chatID,
		UserID: userID,
		URL:    url,
		State:  StateAwaitingQuality,
	}
}

// Transition moves the request to next, rejecting moves the state machine forbids
func (r *Request) Transition(next RequestState) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("invalid request transition: %s -> %s", r.State, next)
	}
	r.State = next
	switch {
	case next == StateDownloading:
		r.StartedAt = time.Now()
	case next.IsFinished():
		r.FinishedAt = time.Now()
	}
	return nil
}

// Fail moves the request to StateFailed and records the cause
func (r *Request) Fail(err error) {
	if err != nil {
		r.LastError = err.Error()
	}
	if r.State.CanTransition(StateFailed) {
		r.State = StateFailed
		r.FinishedAt = time.Now()
	}
}

// Elapsed returns how long the request spent since it started downloading
func (r *Request) Elapsed() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (r *Request) GetDisplayTitle() string {
	// First priority: video title (non-URL)
	if r.Title != "" && !strings.HasPrefix(r.Title, "http") {
		return r.Title
	}

	// Second priority: filename from FilePath
	if r.FilePath != "" {
		parts := strings.FieldsFunc(r.FilePath, func(c rune) bool {
			return c == '/' || c == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return r.URL
}
