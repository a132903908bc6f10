package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Backend limits and formats
const (
	// HardLimitBytes is the largest file the upload side accepts
	HardLimitBytes int64 = 2048 * model.BytesPerMiB
	// MaxFileSizeArg is HardLimitBytes in yt-dlp notation
	MaxFileSizeArg = "2048M"
	// MergeOutputFormat is the container merged streams are written to
	MergeOutputFormat = "mp4"
	// OutputExtension is the yt-dlp template placeholder for the extension
	OutputExtension = ".%(ext)s"

	DefaultMetadataTimeout = 60 * time.Second
	DefaultDownloadTimeout = 120 * time.Second
)

// Format-selection expressions
const (
	FormatBest  = "bestvideo+bestaudio/best"
	FormatAudio = "bestaudio/best"
)

// Service handles metadata probes and downloads
type Service struct {
	executor        Executor
	prober          DurationProber
	downloadDir     string
	ffmpegLocation  string
	maxFileSize     int64
	metadataTimeout time.Duration
	downloadTimeout time.Duration
	newID           func() string
	logger          *slog.Logger
}

// NewService creates a new download service
func NewService(executor Executor, downloadDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		executor:        executor,
		downloadDir:     downloadDir,
		maxFileSize:     HardLimitBytes,
		metadataTimeout: DefaultMetadataTimeout,
		downloadTimeout: DefaultDownloadTimeout,
		newID:           uuid.NewString,
		logger:          logger.With("component", "download"),
	}
}

// SetFFmpegLocation sets the directory yt-dlp searches for ffmpeg
func (s *Service) SetFFmpegLocation(dir string) {
	s.ffmpegLocation = dir
}

// SetDurationProber sets the fallback used when the extractor reports no duration
func (s *Service) SetDurationProber(prober DurationProber) {
	s.prober = prober
}

// SetMaxFileSize caps accepted downloads; values outside 1..HardLimitBytes reset the cap
func (s *Service) SetMaxFileSize(bytes int64) {
	if bytes <= 0 || bytes > HardLimitBytes {
		bytes = HardLimitBytes
	}
	s.maxFileSize = bytes
}

// SetTimeouts sets per-phase timeouts; zero disables a timeout
func (s *Service) SetTimeouts(metadata, download time.Duration) {
	s.metadataTimeout = metadata
	s.downloadTimeout = download
}

// MaxFileSizeFlag renders a byte cap in yt-dlp --max-filesize notation
func MaxFileSizeFlag(bytes int64) string {
	if bytes%model.BytesPerMiB == 0 {
		return fmt.Sprintf("%dM", bytes/model.BytesPerMiB)
	}
	return fmt.Sprintf("%d", bytes)
}

// FormatSelector maps a quality tier to a yt-dlp format expression
func FormatSelector(quality model.Quality) string {
	switch quality {
	case model.QualityAudio:
		return FormatAudio
	case model.QualityBest:
		return FormatBest
	}
	if height := quality.Height(); height > 0 {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/best", height, height)
	}
	return FormatBest
}

// FetchMetadata probes url and returns its title and duration
func (s *Service) FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error) {
	const op = "fetch metadata"

	ctx, cancel := withTimeout(ctx, s.metadataTimeout)
	defer cancel()

	output, err := s.executor.Probe(ctx, url)
	if err != nil {
		return nil, model.NewError(model.KindExtraction, op, timeoutCause(ctx, err, "metadata fetch", s.metadataTimeout))
	}

	info, err := platform.ParseVideoInfo(output)
	if err != nil {
		return nil, model.NewError(model.KindExtraction, op, err)
	}

	s.logger.Debug("fetched metadata", "url", url, "id", info.ID, "title", info.Title)
	return info, nil
}

// Download fetches url at the given quality into <dir>/<uuid>.<ext>. On any
// failure every file carrying the uuid is removed before returning.
func (s *Service) Download(ctx context.Context, url string, quality model.Quality) (*model.DownloadResult, error) {
	const op = "download"

	if err := platform.CreateDirectoryIfNotExists(s.downloadDir); err != nil {
		return nil, model.NewError(model.KindDownload, op, fmt.Errorf("failed to create download directory: %w", err))
	}

	ctx, cancel := withTimeout(ctx, s.downloadTimeout)
	defer cancel()

	id := s.newID()
	req := FetchRequest{
		Format:         FormatSelector(quality),
		OutputTemplate: filepath.Join(s.downloadDir, id+OutputExtension),
		MergeFormat:    MergeOutputFormat,
		MaxFileSize:    MaxFileSizeFlag(s.maxFileSize),
		FFmpegLocation: s.ffmpegLocation,
	}

	s.logger.Info("starting download", "url", url, "quality", quality, "id", id)

	output, err := s.executor.Fetch(ctx, url, req)
	if err != nil {
		s.discard(id)
		return nil, model.NewError(model.KindDownload, op, timeoutCause(ctx, err, "download", s.downloadTimeout))
	}

	path, err := platform.FindFileByToken(s.downloadDir, id)
	if err != nil {
		s.discard(id)
		// yt-dlp skips files above --max-filesize without failing
		return nil, model.Errorf(model.KindDownload, op,
			"no file was produced (the media may exceed the %s limit)", req.MaxFileSize)
	}

	size, err := platform.FileSize(path)
	if err != nil {
		s.discard(id)
		return nil, model.NewError(model.KindDownload, op, err)
	}
	if size > s.maxFileSize {
		s.discard(id)
		return nil, model.Errorf(model.KindDownload, op,
			"file is too large (%.2f MB, limit %.0f MB)",
			float64(size)/model.BytesPerMiB, float64(s.maxFileSize)/model.BytesPerMiB)
	}

	result := &model.DownloadResult{
		FilePath: path,
		FileSize: size,
		Title:    platform.DefaultTitle,
		Uploader: platform.DefaultUploader,
	}
	if info, err := platform.ParseVideoInfo(output); err == nil {
		result.Title = info.Title
		result.Uploader = info.Uploader
		result.DurationSeconds = info.DurationSeconds
	} else {
		s.logger.Debug("download reported no metadata", "id", id, "error", err)
	}

	if result.DurationSeconds == 0 && s.prober != nil {
		if seconds, err := s.prober.Duration(ctx, path); err == nil {
			result.DurationSeconds = int(math.Round(seconds))
		} else {
			s.logger.Debug("duration probe failed", "path", path, "error", err)
		}
	}

	s.logger.Info("download finished", "id", id, "path", path, "size_mb", fmt.Sprintf("%.2f", result.SizeMiB()))
	return result, nil
}

// Cleanup removes path. Missing files are ignored and failures only logged.
func (s *Service) Cleanup(path string) {
	removed, err := platform.RemoveFile(path)
	if err != nil {
		s.logger.Warn("failed to remove downloaded file", "path", path, "error", err)
		return
	}
	if removed {
		s.logger.Debug("removed downloaded file", "path", path)
	}
}

// discard removes partial and finished files of a failed download
func (s *Service) discard(id string) {
	removed, err := platform.RemoveMatching(s.downloadDir, id)
	if err != nil {
		s.logger.Warn("failed to remove partial download", "id", id, "error", err)
	}
	if len(removed) > 0 {
		s.logger.Debug("removed partial download", "id", id, "files", removed)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// timeoutCause replaces a bare deadline error with a readable message
func timeoutCause(ctx context.Context, err error, phase string, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", phase, timeout)
	}
	return err
}
