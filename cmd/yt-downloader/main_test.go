package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"probe", "fetch", "playlist"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand %s, got %v (%v)", name, sub, err)
		}
	}
}

func TestFetchCmd_RejectsBadQuality(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"fetch", "--quality", "huge", "https://example.com/v"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown quality tier") {
		t.Errorf("Expected quality error, got %v", err)
	}
}

func TestProbeCmd_RequiresURL(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"probe"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Error("Expected error without a URL")
	}
}

func TestPrintResult(t *testing.T) {
	result := &model.DownloadResult{
		FilePath:        "/tmp/x.mp4",
		Title:           "Clip",
		Uploader:        "Someone",
		DurationSeconds: 75,
		FileSize:        3 * model.BytesPerMiB,
	}

	var buf bytes.Buffer
	printResult(&buf, result, false)

	out := buf.String()
	for _, want := range []string{"Title:    Clip", "Duration: 01:15", "Size:     3.00 MB", "(removed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPlaylistCmd_RejectsNonPlaylistURL(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"playlist", "https://www.youtube.com/watch?v=abc"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "playlist ID") {
		t.Errorf("Expected playlist ID error, got %v", err)
	}
}

func TestPrintPlaylist(t *testing.T) {
	var buf bytes.Buffer
	printPlaylist(&buf, []platform.PlaylistEntry{
		{Index: 1, VideoID: "abc", Title: "First", URL: "https://www.youtube.com/watch?v=abc"},
	})
	out := buf.String()
	if !strings.Contains(out, "1. First") || !strings.Contains(out, "watch?v=abc") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	buf.Reset()
	printPlaylist(&buf, nil)
	if !strings.Contains(buf.String(), "empty") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}
}
