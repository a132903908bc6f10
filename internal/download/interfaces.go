package download

import (
	"context"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	// FetchMetadata probes url without touching the filesystem
	FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error)

	// Download writes the media behind url into the download directory
	Download(ctx context.Context, url string, quality model.Quality) (*model.DownloadResult, error)

	// Cleanup removes a downloaded file; it never fails
	Cleanup(path string)
}

// Executor runs the extraction backend. Both methods return the JSON-lines
// output of the backend.
type Executor interface {
	Probe(ctx context.Context, url string) (string, error)
	Fetch(ctx context.Context, url string, req FetchRequest) (string, error)
}

// DurationProber fills in durations the extractor did not report
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FetchRequest holds the backend options of a single download
type FetchRequest struct {
	Format         string // format-selection expression
	OutputTemplate string // <dir>/<id>.%(ext)s
	MergeFormat    string
	MaxFileSize    string // e.g. "2048M"
	FFmpegLocation string // empty lets the backend search PATH
}
