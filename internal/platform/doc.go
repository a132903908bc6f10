// Package platform contains OS integration and external tooling glue:
// download directory helpers, output file discovery, parsing of the JSON
// that yt-dlp prints, and YouTube playlist listing.
package platform
