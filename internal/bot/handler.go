package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Commands
const (
	CommandStart = "start"
	CommandHelp  = "help"
	CommandStats = "stats"
)

const (
	DefaultSoftLimitBytes = 50 * model.BytesPerMiB
	DefaultUploadTimeout  = 120 * time.Second
)

// Options tune the orchestrator
type Options struct {
	SoftLimitBytes int64         // size above which the large-file notice is shown
	UploadTimeout  time.Duration // bound of one upload call
	Probes         Runner        // runs metadata probes; nil shares the download runner
	Limiter        *RateLimiter  // nil disables rate limiting
	Logger         *slog.Logger
}

// Handler drives a download request from URL to upload
type Handler struct {
	downloader download.Downloader
	messenger  Messenger
	sessions   PendingStore
	counter    UsageCounter
	runner     Runner
	probes     Runner
	opts       Options
	logger     *slog.Logger
}

// NewHandler creates the orchestrator
func NewHandler(downloader download.Downloader, messenger Messenger, sessions PendingStore,
	counter UsageCounter, runner Runner, opts Options) *Handler {
	if opts.SoftLimitBytes <= 0 {
		opts.SoftLimitBytes = DefaultSoftLimitBytes
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	probes := opts.Probes
	if probes == nil {
		probes = runner
	}
	return &Handler{
		downloader: downloader,
		messenger:  messenger,
		sessions:   sessions,
		counter:    counter,
		runner:     runner,
		probes:     probes,
		opts:       opts,
		logger:     logger.With("component", "bot"),
	}
}

// Handle routes one event. All failures end here as a chat reply.
func (h *Handler) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventCommand:
		h.handleCommand(ctx, ev)
	case EventText:
		h.handleText(ctx, ev)
	case EventCallback:
		h.handleCallback(ctx, ev)
	}
}

// Accepted acknowledges a queued callback before it reaches the front of
// its conversation
func (h *Handler) Accepted(ctx context.Context, ev Event) {
	if ev.Kind == EventCallback {
		h.answer(ctx, ev, "")
	}
}

// Busy answers an event that could not be queued
func (h *Handler) Busy(ctx context.Context, ev Event) {
	if ev.Kind == EventCallback {
		h.answer(ctx, ev, TextBusy)
		return
	}
	h.reply(ctx, ev.ChatID, OutMessage{Text: TextBusy, ReplyTo: ev.MessageID})
}

func (h *Handler) handleCommand(ctx context.Context, ev Event) {
	switch ev.Command {
	case CommandStart:
		h.counter.TrackUser(ctx, ev.UserID)
		h.reply(ctx, ev.ChatID, OutMessage{Text: StartText(ev.UserID, ev.UserName), HTML: true, ReplyTo: ev.MessageID})
	case CommandHelp:
		h.reply(ctx, ev.ChatID, OutMessage{Text: TextHelp, ReplyTo: ev.MessageID})
	case CommandStats:
		h.reply(ctx, ev.ChatID, OutMessage{Text: StatsText(h.counter.Stats()), ReplyTo: ev.MessageID})
	default:
		h.logger.Debug("ignoring unknown command", "chat_id", ev.ChatID, "command", ev.Command)
	}
}

// handleText validates a submitted URL, probes it and shows the quality prompt
func (h *Handler) handleText(ctx context.Context, ev Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	if err := ValidateURL(text); err != nil {
		h.logger.Debug("rejected submission", "chat_id", ev.ChatID, "error", err)
		h.reply(ctx, ev.ChatID, OutMessage{Text: err.Error(), ReplyTo: ev.MessageID})
		return
	}
	if !h.opts.Limiter.Allow(ev.UserID) {
		h.logger.Debug("rate limited submission", "chat_id", ev.ChatID, "user_id", ev.UserID)
		h.reply(ctx, ev.ChatID, OutMessage{Text: TextRateLimited, ReplyTo: ev.MessageID})
		return
	}

	status, err := h.messenger.Send(ctx, ev.ChatID, OutMessage{Text: TextFetchingInfo, ReplyTo: ev.MessageID})
	if err != nil {
		h.logger.Error("failed to send status message", "chat_id", ev.ChatID, "error", err)
		return
	}

	var info *model.VideoInfo
	err = h.probes.Do(ctx, func(ctx context.Context) error {
		var probeErr error
		info, probeErr = h.downloader.FetchMetadata(ctx, text)
		return probeErr
	})
	if err != nil {
		// The failed submission replaces whatever was pending before it
		h.sessions.Clear(ev.ChatID)
		h.logFailure("metadata fetch failed", ev.ChatID, text, err)
		h.edit(ctx, status, OutMessage{Text: MetadataErrorText(err)})
		return
	}

	prompt := QualityPrompt(info.Title)
	if platform.IsPlaylistURL(text) {
		prompt += "\n\n" + TextPlaylistNote
	}
	h.sessions.SetPendingURL(ev.ChatID, text)
	h.edit(ctx, status, OutMessage{Text: prompt, HTML: true, Keyboard: QualityKeyboard()})
	h.logger.Info("awaiting quality", "chat_id", ev.ChatID, "url", text, "title", info.Title)
}

// handleCallback runs the download for a quality selection
func (h *Handler) handleCallback(ctx context.Context, ev Event) {
	quality, ok := ParseCallbackData(ev.Data)
	if !ok {
		h.logger.Debug("ignoring callback", "chat_id", ev.ChatID, "data", ev.Data)
		return
	}

	prompt := MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}
	url, ok := h.sessions.TakePendingURL(ev.ChatID)
	if !ok {
		h.edit(ctx, prompt, OutMessage{Text: TextExpired})
		return
	}

	req := model.NewRequest(ev.ChatID, ev.UserID, url)
	req.Quality = quality
	h.edit(ctx, prompt, OutMessage{Text: QueuedText(quality), HTML: true})

	if err := h.process(ctx, req, prompt); err != nil {
		req.Fail(err)
		h.logFailure("request failed", ev.ChatID, url, err)
		h.reply(ctx, ev.ChatID, OutMessage{Text: DownloadFailedText(err), ReplyTo: prompt.MessageID})
		return
	}

	h.logger.Info("request done",
		"chat_id", ev.ChatID,
		"url", url,
		"title", req.GetDisplayTitle(),
		"quality", quality,
		"size_mb", req.FileSize/model.BytesPerMiB,
		"elapsed", req.Elapsed().Round(time.Millisecond))
}

// process moves req from Downloading to Done. The downloaded file is released
// exactly once before process returns, whatever the outcome.
func (h *Handler) process(ctx context.Context, req *model.Request, prompt MessageRef) error {
	if err := req.Transition(model.StateDownloading); err != nil {
		return err
	}

	var result *model.DownloadResult
	err := h.runner.Do(ctx, func(ctx context.Context) error {
		var downloadErr error
		result, downloadErr = h.downloader.Download(ctx, req.URL, req.Quality)
		return downloadErr
	})
	if result != nil {
		lease := newFileLease(h.downloader, result.FilePath)
		defer lease.Release()
	}
	if err != nil {
		return err
	}

	req.Title = result.Title
	req.FilePath = result.FilePath
	req.FileSize = result.FileSize

	if result.FileSize > download.HardLimitBytes {
		return model.Errorf(model.KindDownload, "download", "file is too large (%.2f MB)", result.SizeMiB())
	}

	if err := req.Transition(model.StateUploading); err != nil {
		return err
	}
	if result.FileSize > h.opts.SoftLimitBytes {
		h.edit(ctx, prompt, OutMessage{Text: LargeFileText(result.Title, result.SizeMiB())})
	} else {
		h.edit(ctx, prompt, OutMessage{Text: TextUploading})
	}

	if err := h.upload(ctx, req, result); err != nil {
		return err
	}

	h.counter.IncrementDownload(ctx)
	if err := req.Transition(model.StateDone); err != nil {
		return err
	}
	if err := h.messenger.Delete(ctx, prompt); err != nil {
		h.logger.Warn("failed to delete prompt message", "chat_id", prompt.ChatID, "error", err)
	}
	return nil
}

func (h *Handler) upload(ctx context.Context, req *model.Request, result *model.DownloadResult) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.UploadTimeout)
	defer cancel()

	upload := Upload{
		ChatID:          req.ChatID,
		FilePath:        result.FilePath,
		Title:           result.Title,
		Performer:       result.Uploader,
		DurationSeconds: result.DurationSeconds,
	}

	var err error
	if req.Quality.IsAudio() {
		upload.Caption = AudioCaption(result.Title)
		err = h.messenger.SendAudio(ctx, upload)
	} else {
		upload.Caption = VideoCaption(result.Title, req.Quality)
		err = h.messenger.SendVideo(ctx, upload)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Errorf(model.KindUpload, "upload", "upload timed out after %s", h.opts.UploadTimeout)
		}
		return model.NewError(model.KindUpload, "upload", err)
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, chatID int64, msg OutMessage) {
	if _, err := h.messenger.Send(ctx, chatID, msg); err != nil {
		h.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) edit(ctx context.Context, ref MessageRef, msg OutMessage) {
	if err := h.messenger.Edit(ctx, ref, msg); err != nil {
		h.logger.Warn("failed to edit message", "chat_id", ref.ChatID, "message_id", ref.MessageID, "error", err)
	}
}

func (h *Handler) answer(ctx context.Context, ev Event, text string) {
	if ev.CallbackID == "" {
		return
	}
	if err := h.messenger.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		h.logger.Warn("failed to answer callback", "chat_id", ev.ChatID, "error", err)
	}
}

// logFailure logs validation failures at debug and everything else at error
func (h *Handler) logFailure(msg string, chatID int64, url string, err error) {
	level := slog.LevelError
	if model.IsKind(err, model.KindValidation) {
		level = slog.LevelDebug
	}
	h.logger.Log(context.Background(), level, msg, "chat_id", chatID, "url", url, "kind", model.KindOf(err), "error", err)
}

// fileLease removes a downloaded file once
type fileLease struct {
	once       sync.Once
	downloader download.Downloader
	path       string
}

func newFileLease(downloader download.Downloader, path string) *fileLease {
	return &fileLease{downloader: downloader, path: path}
}

// Release removes the file; later calls do nothing
func (l *fileLease) Release() {
	l.once.Do(func() {
		l.downloader.Cleanup(l.path)
	})
}
