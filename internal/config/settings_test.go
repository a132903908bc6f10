package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so host variables cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		KeyBotToken, KeyTelegramBotToken, KeyFFmpegPath, KeyYtdlpPath,
		KeyYtdlpAutoInstall, KeyDownloadDir, KeyMaxFileSizeMB, KeyMaxDownloadMB, KeyMaxParallel, KeyMaxProbes,
		KeyMetadataTimeout, KeyDownloadTimeout, KeyUploadTimeout, KeyPendingURLTTL,
		KeyRateLimitPerMin, KeyPort, KeyStatsBackend, KeyStatsFile, KeyRedisURL,
		KeyRedisStatsKey, KeyLogLevel, KeyLogFormat,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyBotToken, "123:abc")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.BotToken != "123:abc" {
		t.Errorf("Expected token 123:abc, got %s", s.BotToken)
	}
	if s.FFmpegPath != DefaultFFmpegPath {
		t.Errorf("Expected ffmpeg path %s, got %s", DefaultFFmpegPath, s.FFmpegPath)
	}
	if filepath.Base(s.DownloadDir) != DefaultDownloadDirName {
		t.Errorf("Expected download dir ending in %s, got %s", DefaultDownloadDirName, s.DownloadDir)
	}
	if s.MaxFileSizeMB != DefaultMaxFileSizeMB {
		t.Errorf("Expected max file size %d, got %d", DefaultMaxFileSizeMB, s.MaxFileSizeMB)
	}
	if s.MaxParallel != DefaultMaxParallel {
		t.Errorf("Expected max parallel %d, got %d", DefaultMaxParallel, s.MaxParallel)
	}
	if s.MaxProbes != DefaultMaxProbes {
		t.Errorf("Expected max probes %d, got %d", DefaultMaxProbes, s.MaxProbes)
	}
	if s.MaxDownloadBytes() != 2048*1024*1024 {
		t.Errorf("Expected download cap of 2048 MiB, got %d", s.MaxDownloadBytes())
	}
	if s.MetadataTimeout != DefaultMetadataTimeout {
		t.Errorf("Expected metadata timeout %v, got %v", DefaultMetadataTimeout, s.MetadataTimeout)
	}
	if s.DownloadTimeout != DefaultDownloadTimeout || s.UploadTimeout != DefaultUploadTimeout {
		t.Errorf("Unexpected timeouts: download %v, upload %v", s.DownloadTimeout, s.UploadTimeout)
	}
	if s.PendingURLTTL != 0 {
		t.Errorf("Expected pending URL TTL disabled, got %v", s.PendingURLTTL)
	}
	if s.RateLimitPerMin != DefaultRateLimitPerMin {
		t.Errorf("Expected rate limit %d, got %d", DefaultRateLimitPerMin, s.RateLimitPerMin)
	}
	if s.Port != DefaultPort || s.Addr() != ":8080" {
		t.Errorf("Expected port %d, got %d (%s)", DefaultPort, s.Port, s.Addr())
	}
	if s.StatsBackend != StatsBackendFile {
		t.Errorf("Expected stats backend %s, got %s", StatsBackendFile, s.StatsBackend)
	}
	if filepath.Base(s.StatsFile) != DefaultStatsFileName {
		t.Errorf("Expected stats file ending in %s, got %s", DefaultStatsFileName, s.StatsFile)
	}
	if s.LogLevel != slog.LevelInfo || s.LogFormat != DefaultLogFormat {
		t.Errorf("Unexpected logging settings: %v %s", s.LogLevel, s.LogFormat)
	}
	if s.SoftLimitBytes() != 50*1024*1024 {
		t.Errorf("Expected soft limit of 50 MiB, got %d", s.SoftLimitBytes())
	}
}

func TestLoad_TokenFallbackAndPlaceholder(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyTelegramBotToken, "456:def")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.BotToken != "456:def" {
		t.Errorf("Expected fallback token 456:def, got %s", s.BotToken)
	}

	clearEnv(t)
	t.Setenv(KeyBotToken, PlaceholderToken)
	if _, err := Load(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken for placeholder, got %v", err)
	}

	clearEnv(t)
	if _, err := Load(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken for empty token, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyBotToken, "123:abc")
	t.Setenv(KeyMaxParallel, "50")
	t.Setenv(KeyMaxProbes, "0")
	t.Setenv(KeyMaxDownloadMB, "500")
	t.Setenv(KeyMetadataTimeout, "90")
	t.Setenv(KeyDownloadTimeout, "5m")
	t.Setenv(KeyPendingURLTTL, "10m")
	t.Setenv(KeyRateLimitPerMin, "0")
	t.Setenv(KeyYtdlpAutoInstall, "true")
	t.Setenv(KeyLogLevel, "debug")
	t.Setenv(KeyLogFormat, "JSON")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.MaxParallel != MaxParallel {
		t.Errorf("Expected max parallel clamped to %d, got %d", MaxParallel, s.MaxParallel)
	}
	if s.MaxProbes != MinParallel {
		t.Errorf("Expected max probes clamped to %d, got %d", MinParallel, s.MaxProbes)
	}
	if s.MaxDownloadMB != 500 || s.MaxDownloadBytes() != 500*1024*1024 {
		t.Errorf("Expected download cap of 500 MiB, got %d", s.MaxDownloadMB)
	}
	if s.MetadataTimeout != 90*time.Second {
		t.Errorf("Expected metadata timeout 90s, got %v", s.MetadataTimeout)
	}
	if s.DownloadTimeout != 5*time.Minute {
		t.Errorf("Expected download timeout 5m, got %v", s.DownloadTimeout)
	}
	if s.PendingURLTTL != 10*time.Minute {
		t.Errorf("Expected pending URL TTL 10m, got %v", s.PendingURLTTL)
	}
	if s.RateLimitPerMin != 0 {
		t.Errorf("Expected rate limit disabled, got %d", s.RateLimitPerMin)
	}
	if !s.YtdlpAutoInstall {
		t.Error("Expected yt-dlp auto install enabled")
	}
	if s.LogLevel != slog.LevelDebug || s.LogFormat != "json" {
		t.Errorf("Unexpected logging settings: %v %s", s.LogLevel, s.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", KeyMaxFileSizeMB, "lots"},
		{"zero size", KeyMaxFileSizeMB, "0"},
		{"download cap above 2 GiB", KeyMaxDownloadMB, "4096"},
		{"zero download cap", KeyMaxDownloadMB, "0"},
		{"bad duration", KeyDownloadTimeout, "soon"},
		{"bad bool", KeyYtdlpAutoInstall, "maybe"},
		{"bad port", KeyPort, "70000"},
		{"bad backend", KeyStatsBackend, "sqlite"},
		{"redis without url", KeyStatsBackend, StatsBackendRedis},
		{"bad level", KeyLogLevel, "loud"},
		{"bad format", KeyLogFormat, "xml"},
		{"negative rate", KeyRateLimitPerMin, "-1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(KeyBotToken, "123:abc")
			t.Setenv(test.key, test.value)

			if _, err := Load(""); err == nil {
				t.Errorf("Expected error for %s=%q", test.key, test.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills unset variables
	os.Unsetenv(KeyBotToken)
	os.Unsetenv(KeyPort)

	envFile := filepath.Join(t.TempDir(), "bot.env")
	content := "BOT_TOKEN=789:ghi\nPORT=9090\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv(KeyBotToken)
		os.Unsetenv(KeyPort)
	})

	s, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.BotToken != "789:ghi" || s.Port != 9090 {
		t.Errorf("Expected values from env file, got token %s port %d", s.BotToken, s.Port)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing env file")
	}
}

func TestClampParallel(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{5, 5},
		{10, 10},
		{11, 10},
	}

	for _, test := range tests {
		if result := ClampParallel(test.input); result != test.expected {
			t.Errorf("ClampParallel(%d) = %d, expected %d", test.input, result, test.expected)
		}
	}
}

func TestEnsureDownloadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	s := &Settings{DownloadDir: dir}

	if err := s.EnsureDownloadDir(); err != nil {
		t.Fatalf("EnsureDownloadDir failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected directory %s to exist", dir)
	}
}
