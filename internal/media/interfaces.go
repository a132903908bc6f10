package media

import "context"

// Prober defines the interface for the media probe service.
type Prober interface {
	// Available reports whether the ffmpeg merge binary was found
	Available() bool
	// Location returns the directory yt-dlp should search for ffmpeg, or ""
	Location() string
	// Duration returns the media duration of path in seconds
	Duration(ctx context.Context, path string) (float64, error)
}
