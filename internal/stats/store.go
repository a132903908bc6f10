// Package stats counts distinct users and completed downloads and persists
// the counters after every change.
package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Store persists the whole usage record
type Store interface {
	// Load returns the stored record; a missing record is an empty one
	Load(ctx context.Context) (*model.UsageStats, error)
	// Save overwrites the stored record
	Save(ctx context.Context, stats *model.UsageStats) error
}

// decodeStats parses the {"users": [...], "total_downloads": N} record
func decodeStats(data []byte) (*model.UsageStats, error) {
	var stats model.UsageStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	if stats.Users == nil {
		stats.Users = []int64{}
	}
	if stats.TotalDownloads < 0 {
		stats.TotalDownloads = 0
	}
	return &stats, nil
}

func encodeStats(stats *model.UsageStats) ([]byte, error) {
	record := *stats
	if record.Users == nil {
		record.Users = []int64{}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}
	return data, nil
}

func emptyStats() *model.UsageStats {
	return &model.UsageStats{Users: []int64{}}
}
