// Package config loads the bot settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Stats backends
const (
	StatsBackendFile  = "file"
	StatsBackendRedis = "redis"
)

// Environment keys
const (
	KeyBotToken         = "BOT_TOKEN"
	KeyTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	KeyFFmpegPath       = "FFMPEG_PATH"
	KeyYtdlpPath        = "YTDLP_PATH"
	KeyYtdlpAutoInstall = "YTDLP_AUTO_INSTALL"
	KeyDownloadDir      = "DOWNLOAD_DIR"
	KeyMaxFileSizeMB    = "MAX_FILE_SIZE_MB"
	KeyMaxDownloadMB    = "MAX_DOWNLOAD_SIZE_MB"
	KeyMaxParallel      = "MAX_PARALLEL_DOWNLOADS"
	KeyMaxProbes        = "MAX_PARALLEL_PROBES"
	KeyMetadataTimeout  = "METADATA_TIMEOUT"
	KeyDownloadTimeout  = "DOWNLOAD_TIMEOUT"
	KeyUploadTimeout    = "UPLOAD_TIMEOUT"
	KeyPendingURLTTL    = "PENDING_URL_TTL"
	KeyRateLimitPerMin  = "RATE_LIMIT_PER_MIN"
	KeyPort             = "PORT"
	KeyStatsBackend     = "STATS_BACKEND"
	KeyStatsFile        = "STATS_FILE"
	KeyRedisURL         = "REDIS_URL"
	KeyRedisStatsKey    = "REDIS_STATS_KEY"
	KeyLogLevel         = "LOG_LEVEL"
	KeyLogFormat        = "LOG_FORMAT"
)

// Default values
const (
	PlaceholderToken       = "your_token_here"
	DefaultFFmpegPath      = "ffmpeg"
	DefaultDownloadDirName = "downloads"
	DefaultStatsFileName   = "stats.json"
	DefaultMaxFileSizeMB   = 50
	DefaultMaxDownloadMB   = 2048
	MaxDownloadMB          = 2048
	DefaultMaxParallel     = 2
	DefaultMaxProbes       = 4
	MinParallel            = 1
	MaxParallel            = 10
	DefaultMetadataTimeout = 60 * time.Second
	DefaultDownloadTimeout = 120 * time.Second
	DefaultUploadTimeout   = 120 * time.Second
	DefaultRateLimitPerMin = 10
	DefaultPort            = 8080
	DefaultRedisStatsKey   = "ytbot:stats"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// ErrMissingToken is returned when no usable bot token is configured
var ErrMissingToken = errors.New("BOT_TOKEN is not set in the environment or .env file")

// Settings holds the bot configuration
type Settings struct {
	BotToken         string
	FFmpegPath       string
	YtdlpPath        string
	YtdlpAutoInstall bool
	DownloadDir      string
	MaxFileSizeMB    int // soft limit that triggers the large-file notice
	MaxDownloadMB    int // downloads above this size are rejected
	MaxParallel      int
	MaxProbes        int // metadata probes run on their own slots
	MetadataTimeout  time.Duration
	DownloadTimeout  time.Duration
	UploadTimeout    time.Duration
	PendingURLTTL    time.Duration // 0 keeps pending URLs until replaced
	RateLimitPerMin  int           // 0 disables the limiter
	Port             int
	StatsBackend     string
	StatsFile        string
	RedisURL         string
	RedisStatsKey    string
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads envFile (or ./.env when empty and present) and then the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	s := &Settings{
		BotToken:      getEnvOrDefault(KeyBotToken, os.Getenv(KeyTelegramBotToken)),
		FFmpegPath:    getEnvOrDefault(KeyFFmpegPath, DefaultFFmpegPath),
		YtdlpPath:     os.Getenv(KeyYtdlpPath),
		DownloadDir:   getEnvOrDefault(KeyDownloadDir, filepath.Join(cwd, DefaultDownloadDirName)),
		StatsBackend:  strings.ToLower(getEnvOrDefault(KeyStatsBackend, StatsBackendFile)),
		StatsFile:     getEnvOrDefault(KeyStatsFile, filepath.Join(cwd, DefaultStatsFileName)),
		RedisURL:      os.Getenv(KeyRedisURL),
		RedisStatsKey: getEnvOrDefault(KeyRedisStatsKey, DefaultRedisStatsKey),
		LogFormat:     strings.ToLower(getEnvOrDefault(KeyLogFormat, DefaultLogFormat)),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	s.YtdlpAutoInstall, err = getBool(KeyYtdlpAutoInstall, false)
	collect(err)
	s.MaxFileSizeMB, err = getInt(KeyMaxFileSizeMB, DefaultMaxFileSizeMB)
	collect(err)
	s.MaxDownloadMB, err = getInt(KeyMaxDownloadMB, DefaultMaxDownloadMB)
	collect(err)
	s.MaxParallel, err = getInt(KeyMaxParallel, DefaultMaxParallel)
	collect(err)
	s.MaxProbes, err = getInt(KeyMaxProbes, DefaultMaxProbes)
	collect(err)
	s.MetadataTimeout, err = getDuration(KeyMetadataTimeout, DefaultMetadataTimeout)
	collect(err)
	s.DownloadTimeout, err = getDuration(KeyDownloadTimeout, DefaultDownloadTimeout)
	collect(err)
	s.UploadTimeout, err = getDuration(KeyUploadTimeout, DefaultUploadTimeout)
	collect(err)
	s.PendingURLTTL, err = getDuration(KeyPendingURLTTL, 0)
	collect(err)
	s.RateLimitPerMin, err = getInt(KeyRateLimitPerMin, DefaultRateLimitPerMin)
	collect(err)
	s.Port, err = getInt(KeyPort, DefaultPort)
	collect(err)
	s.LogLevel, err = parseLevel(getEnvOrDefault(KeyLogLevel, DefaultLogLevel))
	collect(err)

	s.MaxParallel = ClampParallel(s.MaxParallel)
	s.MaxProbes = ClampParallel(s.MaxProbes)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.BotToken == "" || s.BotToken == PlaceholderToken {
		return ErrMissingToken
	}
	if s.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxFileSizeMB, s.MaxFileSizeMB)
	}
	if s.MaxDownloadMB <= 0 || s.MaxDownloadMB > MaxDownloadMB {
		return fmt.Errorf("%s must be within 1..%d, got %d", KeyMaxDownloadMB, MaxDownloadMB, s.MaxDownloadMB)
	}
	if s.RateLimitPerMin < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyRateLimitPerMin, s.RateLimitPerMin)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%s out of range: %d", KeyPort, s.Port)
	}
	if s.PendingURLTTL < 0 {
		return fmt.Errorf("%s must not be negative", KeyPendingURLTTL)
	}
	switch s.StatsBackend {
	case StatsBackendFile:
	case StatsBackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("%s is required when %s=%s", KeyRedisURL, KeyStatsBackend, StatsBackendRedis)
		}
	default:
		return fmt.Errorf("unknown %s %q", KeyStatsBackend, s.StatsBackend)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown %s %q", KeyLogFormat, s.LogFormat)
	}
	return nil
}

// EnsureDownloadDir creates the download directory if needed
func (s *Settings) EnsureDownloadDir() error {
	return platform.CreateDirectoryIfNotExists(s.DownloadDir)
}

// SoftLimitBytes returns the large-file notice threshold in bytes
func (s *Settings) SoftLimitBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// MaxDownloadBytes returns the download size cap in bytes
func (s *Settings) MaxDownloadBytes() int64 {
	return int64(s.MaxDownloadMB) * 1024 * 1024
}

// Addr returns the listen address of the liveness endpoint
func (s *Settings) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// ClampParallel keeps the worker count within MinParallel..MaxParallel
func ClampParallel(count int) int {
	if count < MinParallel {
		return MinParallel
	}
	if count > MaxParallel {
		return MaxParallel
	}
	return count
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return b, nil
}

// getDuration accepts Go durations ("90s", "2m") or bare seconds ("90")
func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}

func parseLevel(val string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(val)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyLogLevel, val, err)
	}
	return level, nil
}
