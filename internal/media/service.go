// Package media locates the ffmpeg toolchain used by yt-dlp to merge streams
// and probes downloaded files with ffprobe.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// FFmpeg constants
const (
	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"

	// DefaultProbeTimeout bounds a single ffprobe run
	DefaultProbeTimeout = 15 * time.Second
)

// ErrUnavailable is returned by Duration when ffprobe could not be located
var ErrUnavailable = errors.New("ffprobe is not available")

// Service handles ffmpeg discovery and ffprobe runs
type Service struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewService locates ffmpeg from a name or a path. A missing binary is not an
// error: yt-dlp still works for single-stream formats, so the service only
// reports itself unavailable.
func NewService(ffmpeg string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		timeout: DefaultProbeTimeout,
		logger:  logger.With("component", "media"),
	}

	if path, err := LocateFFmpeg(ffmpeg); err == nil {
		s.ffmpegPath = path
	}
	s.ffprobePath = locateFFprobe(s.ffmpegPath)
	return s
}

// Available reports whether the ffmpeg merge binary was found
func (s *Service) Available() bool {
	return s.ffmpegPath != ""
}

// Location returns the directory that holds ffmpeg, or ""
func (s *Service) Location() string {
	if s.ffmpegPath == "" {
		return ""
	}
	return filepath.Dir(s.ffmpegPath)
}

// Duration gets the duration of a media file using ffprobe
func (s *Service) Duration(ctx context.Context, filePath string) (float64, error) {
	if s.ffprobePath == "" {
		return 0, ErrUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.ffprobePath, BuildFFprobeArgs(filePath)...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	duration, err := parseDuration(string(output))
	if err != nil {
		return 0, err
	}

	s.logger.Debug("probed media duration", "path", filePath, "seconds", duration)
	return duration, nil
}

// BuildFFprobeArgs builds the ffprobe arguments that print the container duration
func BuildFFprobeArgs(filePath string) []string {
	return []string{
		"-v", FFprobeLogLevel, // Errors only
		"-show_entries", FFprobeShowEntries, // Container duration
		"-of", FFprobeOutputFormat, // Bare value
		filePath,
	}
}

// LocateFFmpeg resolves a name on PATH or an explicit path to an executable
func LocateFFmpeg(ffmpeg string) (string, error) {
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = FFmpegCommand
	}
	path, err := exec.LookPath(ffmpeg)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found at %s: %w", ffmpeg, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// locateFFprobe prefers the ffprobe shipped next to ffmpeg, then PATH
func locateFFprobe(ffmpegPath string) string {
	name := FFprobeCommand
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if ffmpegPath != "" {
		if path, err := exec.LookPath(filepath.Join(filepath.Dir(ffmpegPath), name)); err == nil {
			return path
		}
	}
	if path, err := exec.LookPath(FFprobeCommand); err == nil {
		return path
	}
	return ""
}

// parseDuration parses the bare seconds value ffprobe prints
func parseDuration(output string) (float64, error) {
	durationStr := strings.TrimSpace(output)
	if durationStr == "" || durationStr == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return duration, nil
}
