package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
)

// DefaultPlaylistTimeout bounds one playlist listing
const DefaultPlaylistTimeout = 60 * time.Second

// URL parameters and templates
const (
	PlaylistParam           = "list"
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// PlaylistEntry is one video of a YouTube playlist
type PlaylistEntry struct {
	Index   int
	VideoID string
	Title   string
	URL     string
}

// PlaylistLister lists YouTube playlists with the pure-Go ytdlp client. The
// bot downloads single videos only; listings let a user pick entries.
type PlaylistLister struct {
	timeout time.Duration
}

// NewPlaylistLister creates a new lister
func NewPlaylistLister() *PlaylistLister {
	return &PlaylistLister{timeout: DefaultPlaylistTimeout}
}

// SetTimeout sets the timeout for listing operations
func (l *PlaylistLister) SetTimeout(timeout time.Duration) {
	l.timeout = timeout
}

// List returns up to limit entries of the playlist behind rawURL; 0 means all
func (l *PlaylistLister) List(ctx context.Context, rawURL string, limit int) ([]PlaylistEntry, error) {
	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", rawURL)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]PlaylistEntry, 0, len(items))
	for i, it := range items {
		title := it.Title
		if title == "" {
			title = DefaultTitle
		}
		entries = append(entries, PlaylistEntry{
			Index:   i + 1,
			VideoID: it.VideoID,
			Title:   title,
			URL:     fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return entries, nil
}

// IsPlaylistURL reports whether rawURL carries a playlist id
func IsPlaylistURL(rawURL string) bool {
	return ExtractPlaylistID(rawURL) != ""
}

// ExtractPlaylistID returns the list= parameter of rawURL, or ""
func ExtractPlaylistID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Query().Get(PlaylistParam))
}
