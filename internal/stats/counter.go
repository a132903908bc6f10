package stats

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Counter tracks distinct users and completed downloads. Mutations are
// serialized and each change is persisted before the lock is released.
type Counter struct {
	mu     sync.Mutex
	store  Store
	users  map[int64]struct{}
	order  []int64
	total  int
	logger *slog.Logger
}

// NewCounter loads the persisted record. A load failure starts from an
// empty baseline.
func NewCounter(ctx context.Context, store Store, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Counter{
		store:  store,
		users:  make(map[int64]struct{}),
		logger: logger.With("component", "stats"),
	}

	record, err := store.Load(ctx)
	if err != nil {
		c.logger.Error("failed to load stats", "error", model.NewError(model.KindPersistence, "load stats", err))
		return c
	}
	for _, id := range record.Users {
		if _, seen := c.users[id]; seen {
			continue
		}
		c.users[id] = struct{}{}
		c.order = append(c.order, id)
	}
	c.total = record.TotalDownloads
	return c
}

// TrackUser records id and reports whether it was new. Known ids are not
// persisted again.
func (c *Counter) TrackUser(ctx context.Context, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.users[id]; seen {
		return false
	}
	c.users[id] = struct{}{}
	c.order = append(c.order, id)
	c.save(ctx)
	return true
}

// IncrementDownload counts one completed download
func (c *Counter) IncrementDownload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.save(ctx)
}

// Stats returns the current counters
func (c *Counter) Stats() model.StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.StatsSnapshot{
		UniqueUsers:    len(c.order),
		TotalDownloads: c.total,
	}
}

// save must be called with mu held. Failures keep the in-memory change.
func (c *Counter) save(ctx context.Context) {
	record := &model.UsageStats{
		Users:          append([]int64(nil), c.order...),
		TotalDownloads: c.total,
	}
	if err := c.store.Save(ctx, record); err != nil {
		c.logger.Error("failed to save stats", "error", model.NewError(model.KindPersistence, "save stats", err))
	}
}
