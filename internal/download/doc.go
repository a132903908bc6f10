// Package download wraps yt-dlp (via github.com/lrstanley/go-ytdlp) into the
// two operations the bot needs: a metadata probe and a single-file download
// into a uniquely named local file selected by a quality tier.
package download
