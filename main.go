package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-downloader-bot/internal/bot"
	"github.com/ytget/yt-downloader-bot/internal/config"
	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/health"
	"github.com/ytget/yt-downloader-bot/internal/media"
	"github.com/ytget/yt-downloader-bot/internal/session"
	"github.com/ytget/yt-downloader-bot/internal/stats"
	"github.com/ytget/yt-downloader-bot/internal/telegram"
	"github.com/ytget/yt-downloader-bot/internal/worker"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppName = "yt-downloader-bot"

	sessionPruneInterval = time.Minute
	limiterPruneInterval = 10 * time.Minute
)

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Telegram bot that downloads media with yt-dlp and sends it back",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "load settings from this file instead of ./.env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("bot stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile string) error {
	settings, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(os.Stdout, settings)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", version)

	if err := settings.EnsureDownloadDir(); err != nil {
		return fmt.Errorf("failed to ensure download dir: %w", err)
	}

	var probe media.Prober = media.NewService(settings.FFmpegPath, logger)
	if !probe.Available() {
		logger.Warn("ffmpeg not found, merging separate video and audio streams will fail", "path", settings.FFmpegPath)
	}

	if settings.YtdlpAutoInstall {
		logger.Info("installing yt-dlp")
		if err := download.Install(ctx); err != nil {
			return err
		}
	}

	downloader := download.NewService(download.NewYtdlpExecutor(settings.YtdlpPath), settings.DownloadDir, logger)
	downloader.SetFFmpegLocation(probe.Location())
	downloader.SetDurationProber(probe)
	downloader.SetTimeouts(settings.MetadataTimeout, settings.DownloadTimeout)
	downloader.SetMaxFileSize(settings.MaxDownloadBytes())

	store, closeStore, err := openStatsStore(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore()
	counter := stats.NewCounter(ctx, store, logger)

	sessions := session.NewStore(settings.PendingURLTTL)
	pool := worker.NewPool(settings.MaxParallel)
	defer pool.Close()
	probes := worker.NewPool(settings.MaxProbes)
	defer probes.Close()

	client, err := telegram.NewClient(settings.BotToken, settings.UploadTimeout, logger)
	if err != nil {
		return err
	}
	logger.Info("authorized", "bot", client.Username())

	limiter := bot.NewRateLimiter(settings.RateLimitPerMin)
	handler := bot.NewHandler(downloader, client, sessions, counter, pool, bot.Options{
		SoftLimitBytes: settings.SoftLimitBytes(),
		UploadTimeout:  settings.UploadTimeout,
		Probes:         probes,
		Limiter:        limiter,
		Logger:         logger,
	})
	dispatcher := bot.NewDispatcher(handler, bot.DispatcherOptions{Logger: logger})
	liveness := health.NewServer(settings.Addr(), logger)

	logger.Info("bot ready",
		"download_dir", settings.DownloadDir,
		"workers", pool.Size(),
		"probe_workers", probes.Size(),
		"max_download_mb", settings.MaxDownloadMB,
		"stats_backend", settings.StatsBackend,
		"rate_limit_per_min", settings.RateLimitPerMin)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return liveness.Run(gctx)
	})
	g.Go(func() error {
		return client.Poll(gctx, dispatcher, handler)
	})
	g.Go(func() error {
		sessions.RunJanitor(gctx, sessionPruneInterval)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(limiterPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	})

	err = g.Wait()
	logger.Info("shutting down, waiting for active conversations", "active", dispatcher.Active())
	dispatcher.Wait()
	logger.Info("bot stopped")
	return err
}

func openStatsStore(ctx context.Context, settings *config.Settings) (stats.Store, func(), error) {
	switch settings.StatsBackend {
	case config.StatsBackendRedis:
		store, err := stats.NewRedisStore(ctx, settings.RedisURL, settings.RedisStatsKey)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using redis stats store", "key", store.Key())
		return store, func() { store.Close() }, nil
	default:
		store := stats.NewFileStore(settings.StatsFile)
		slog.Info("using file stats store", "path", store.Path())
		return store, func() {}, nil
	}
}

func newLogger(w io.Writer, settings *config.Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: settings.LogLevel}
	if settings.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
