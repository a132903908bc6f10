package model

// UsageStats is the durable usage record
type UsageStats struct {
	Users          []int64 `json:"users"`
	TotalDownloads int     `json:"total_downloads"`
}

// StatsSnapshot is a read-only view served by the stats command
type StatsSnapshot struct {
	UniqueUsers    int
	TotalDownloads int
}
