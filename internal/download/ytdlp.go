package download

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpExecutor runs the yt-dlp binary through go-ytdlp
type YtdlpExecutor struct {
	executable string
}

// NewYtdlpExecutor creates an executor. An empty executable lets go-ytdlp
// resolve yt-dlp from PATH or its own cache.
func NewYtdlpExecutor(executable string) *YtdlpExecutor {
	return &YtdlpExecutor{executable: executable}
}

// Install downloads a managed yt-dlp binary when none is available
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// SingleItem limits playlist URLs to their first entry
const SingleItem = "1"

// Probe runs yt-dlp --dump-json --no-playlist
func (e *YtdlpExecutor) Probe(ctx context.Context, url string) (string, error) {
	return e.run(ctx, e.probeCommand(), url)
}

// Fetch downloads url and prints the final info dict as JSON
func (e *YtdlpExecutor) Fetch(ctx context.Context, url string, req FetchRequest) (string, error) {
	return e.run(ctx, e.fetchCommand(req), url)
}

// probeCommand never reaches past the first entry: --dump-json prints one
// line per playlist entry, never the playlist itself.
func (e *YtdlpExecutor) probeCommand() *ytdlp.Command {
	return e.command().
		DumpJSON().
		NoPlaylist().
		PlaylistItems(SingleItem)
}

func (e *YtdlpExecutor) fetchCommand(req FetchRequest) *ytdlp.Command {
	dl := e.command().
		Format(req.Format).
		Output(req.OutputTemplate).
		NoPlaylist().
		PlaylistItems(SingleItem).
		DumpJSON().
		NoSimulate()

	if req.MergeFormat != "" {
		dl.MergeOutputFormat(req.MergeFormat)
	}
	if req.MaxFileSize != "" {
		dl.MaxFileSize(req.MaxFileSize)
	}
	if req.FFmpegLocation != "" {
		dl.FFmpegLocation(req.FFmpegLocation)
	}
	return dl
}

func (e *YtdlpExecutor) command() *ytdlp.Command {
	dl := ytdlp.New()
	if e.executable != "" {
		dl.SetExecutable(e.executable)
	}
	return dl
}

func (e *YtdlpExecutor) run(ctx context.Context, dl *ytdlp.Command, url string) (string, error) {
	res, err := dl.Run(ctx, url)
	if err != nil {
		if res != nil {
			if msg := lastErrorLine(res.Stderr); msg != "" {
				return "", fmt.Errorf("%s", msg)
			}
		}
		return "", err
	}
	return res.Stdout, nil
}

// lastErrorLine returns the message of the last ERROR: line of yt-dlp
// stderr, or "" when there is none
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return ""
}
