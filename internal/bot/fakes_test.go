package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// fakeDownloader writes real files so cleanup can be observed
type fakeDownloader struct {
	mu          sync.Mutex
	dir         string
	info        *model.VideoInfo
	metadataErr error
	fileSize    int64 // reported size; the file on disk stays small
	uploader    string
	partial     bool // leave a partial file behind and fail
	downloadErr error
	cleanupFail bool

	probed    []string
	downloads []model.Quality
	cleaned   map[string]int
	files     []string
}

func newFakeDownloader(dir string) *fakeDownloader {
	return &fakeDownloader{
		dir:      dir,
		info:     &model.VideoInfo{ID: "v1", Title: "Clip"},
		fileSize: 10_000_000,
		cleaned:  make(map[string]int),
	}
}

func (f *fakeDownloader) FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, url)
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.info, nil
}

func (f *fakeDownloader) Download(ctx context.Context, url string, quality model.Quality) (*model.DownloadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, quality)

	name := filepath.Join(f.dir, "file-"+string(quality)+".mp4")
	if f.partial {
		// The adapter removes its own partial files before failing
		if err := os.WriteFile(name+".part", []byte("partial"), 0644); err != nil {
			return nil, err
		}
		f.files = append(f.files, name+".part")
		os.Remove(name + ".part")
		return nil, model.NewError(model.KindDownload, "download", errors.New("connection reset"))
	}
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	if err := os.WriteFile(name, []byte("media"), 0644); err != nil {
		return nil, err
	}
	f.files = append(f.files, name)
	return &model.DownloadResult{
		FilePath:        name,
		Title:           f.info.Title,
		DurationSeconds: 42,
		Uploader:        f.uploader,
		FileSize:        f.fileSize,
	}, nil
}

func (f *fakeDownloader) Cleanup(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned[path]++
	if !f.cleanupFail {
		os.Remove(path)
	}
}

// fakeMessenger records every outbound call
type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []OutMessage
	edits     []OutMessage
	deleted   []MessageRef
	answered  []string
	audio     []Upload
	video     []Upload
	uploadErr error
	sendErr   error
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, msg OutMessage) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return MessageRef{}, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, msg)
	return MessageRef{ChatID: chatID, MessageID: 100 + m.nextID}, nil
}

func (m *fakeMessenger) Edit(ctx context.Context, ref MessageRef, msg OutMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, msg)
	return nil
}

func (m *fakeMessenger) Delete(ctx context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *fakeMessenger) SendAudio(ctx context.Context, upload Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.audio = append(m.audio, upload)
	return nil
}

func (m *fakeMessenger) SendVideo(ctx context.Context, upload Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.video = append(m.video, upload)
	return nil
}

func (m *fakeMessenger) lastEdit() OutMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edits) == 0 {
		return OutMessage{}
	}
	return m.edits[len(m.edits)-1]
}

func (m *fakeMessenger) lastSent() OutMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return OutMessage{}
	}
	return m.sent[len(m.sent)-1]
}

// memCounter is an in-memory UsageCounter
type memCounter struct {
	mu        sync.Mutex
	users     map[int64]bool
	downloads int
}

func newMemCounter() *memCounter {
	return &memCounter{users: make(map[int64]bool)}
}

func (c *memCounter) TrackUser(ctx context.Context, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users[id] {
		return false
	}
	c.users[id] = true
	return true
}

func (c *memCounter) IncrementDownload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloads++
}

func (c *memCounter) Stats() model.StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.StatsSnapshot{UniqueUsers: len(c.users), TotalDownloads: c.downloads}
}
