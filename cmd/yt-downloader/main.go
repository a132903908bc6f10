// Command yt-downloader probes and downloads media through the same adapter
// the bot uses, without Telegram.
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

	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/media"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

type options struct {
	ytdlpPath string
	ffmpeg    string
	verbose   bool
	timeout   time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "yt-downloader",
		Short:         "Probe and download media with yt-dlp",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ytdlpPath, "ytdlp", os.Getenv("YTDLP_PATH"), "path to the yt-dlp executable")
	cmd.PersistentFlags().StringVar(&opts.ffmpeg, "ffmpeg", envOr("FFMPEG_PATH", media.FFmpegCommand), "ffmpeg name or path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "timeout of one operation")

	cmd.AddCommand(newProbeCmd(opts), newFetchCmd(opts), newPlaylistCmd(opts))
	return cmd
}

func newProbeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>",
		Short: "Print title, uploader and duration of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService(opts, os.TempDir())

			info, err := svc.FetchMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", info.ID)
			fmt.Fprintf(out, "Title:    %s\n", info.Title)
			fmt.Fprintf(out, "Uploader: %s\n", info.Uploader)
			fmt.Fprintf(out, "Duration: %s\n", platform.FormatDuration(info.DurationSeconds))
			return nil
		},
	}
}

func newFetchCmd(opts *options) *cobra.Command {
	var (
		quality string
		dir     string
		keep    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a URL at the given quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := model.ParseQuality(quality)
			if err != nil {
				return err
			}

			svc := newService(opts, dir)
			result, err := svc.Download(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			if !keep {
				defer svc.Cleanup(result.FilePath)
			}

			printResult(cmd.OutOrStdout(), result, keep)
			return nil
		},
	}
	cmd.Flags().StringVarP(&quality, "quality", "q", string(model.Quality720), "1080, 720, 480, best, audio or any height")
	cmd.Flags().StringVarP(&dir, "dir", "d", "downloads", "download directory")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the downloaded file")
	return cmd
}

func newPlaylistCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "playlist <url>",
		Short: "List the videos of a YouTube playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lister := platform.NewPlaylistLister()
			lister.SetTimeout(opts.timeout)

			entries, err := lister.List(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printPlaylist(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries, 0 lists all")
	return cmd
}

func newService(opts *options, dir string) *download.Service {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var probe media.Prober = media.NewService(opts.ffmpeg, logger)
	if !probe.Available() {
		logger.Warn("ffmpeg not found, merged formats may fail", "path", opts.ffmpeg)
	}

	svc := download.NewService(download.NewYtdlpExecutor(opts.ytdlpPath), dir, logger)
	svc.SetFFmpegLocation(probe.Location())
	svc.SetDurationProber(probe)
	svc.SetTimeouts(opts.timeout, opts.timeout)
	return svc
}

func printResult(w io.Writer, result *model.DownloadResult, kept bool) {
	fmt.Fprintf(w, "Title:    %s\n", result.Title)
	fmt.Fprintf(w, "Uploader: %s\n", result.Uploader)
	fmt.Fprintf(w, "Duration: %s\n", platform.FormatDuration(result.DurationSeconds))
	fmt.Fprintf(w, "Size:     %.2f MB\n", result.SizeMiB())
	if kept {
		fmt.Fprintf(w, "File:     %s\n", result.FilePath)
	} else {
		fmt.Fprintf(w, "File:     %s (removed)\n", result.FilePath)
	}
}

func printPlaylist(w io.Writer, entries []platform.PlaylistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Playlist is empty")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%3d. %s\n     %s\n", e.Index, e.Title, e.URL)
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
