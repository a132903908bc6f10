// Package session keeps the per-conversation state carried between messages.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Store holds at most one pending URL per chat
type Store struct {
	mu      sync.Mutex
	pending map[int64]model.DownloadRequest
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store. A positive ttl expires pending URLs that were
// not answered in time; zero keeps them until replaced or taken.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		pending: make(map[int64]model.DownloadRequest),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetPendingURL stores url for chatID, replacing any earlier one
func (s *Store) SetPendingURL(chatID int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = model.DownloadRequest{URL: url, SubmittedAt: s.now()}
}

// TakePendingURL returns and clears the pending URL of chatID
func (s *Store) TakePendingURL(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.lookup(chatID)
	delete(s.pending, chatID)
	return req.URL, ok
}

// Clear forgets the pending URL of chatID
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}

// Prune drops expired entries and returns how many were removed
func (s *Store) Prune() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for chatID, req := range s.pending {
		if s.expired(req) {
			delete(s.pending, chatID)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes expired entries every interval until ctx ends
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}

// lookup must be called with mu held
func (s *Store) lookup(chatID int64) (model.DownloadRequest, bool) {
	req, ok := s.pending[chatID]
	if !ok {
		return model.DownloadRequest{}, false
	}
	if s.expired(req) {
		delete(s.pending, chatID)
		return model.DownloadRequest{}, false
	}
	return req, true
}

func (s *Store) expired(req model.DownloadRequest) bool {
	return s.ttl > 0 && s.now().Sub(req.SubmittedAt) > s.ttl
}
