package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeExecutable creates a shell script that prints output
func writeExecutable(t *testing.T, dir, name, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho '" + output + "'\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestBuildFFprobeArgs(t *testing.T) {
	args := BuildFFprobeArgs("/input.mp4")

	expectedArgs := []string{
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		"/input.mp4",
	}

	if len(args) != len(expectedArgs) {
		t.Fatalf("Expected %d args, got %d", len(expectedArgs), len(args))
	}

	for i, expected := range expectedArgs {
		if args[i] != expected {
			t.Errorf("Arg %d: expected %s, got %s", i, expected, args[i])
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		output   string
		expected float64
		wantErr  bool
	}{
		{"212.480000\n", 212.48, false},
		{"  60 ", 60, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, test := range tests {
		result, err := parseDuration(test.output)
		if (err != nil) != test.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", test.output, err, test.wantErr)
			continue
		}
		if result != test.expected {
			t.Errorf("parseDuration(%q) = %f, expected %f", test.output, result, test.expected)
		}
	}
}

func TestLocateFFmpeg_Missing(t *testing.T) {
	_, err := LocateFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg"))
	if err == nil {
		t.Error("Expected error for missing ffmpeg, got nil")
	}
}

func TestNewService_WithBundledTools(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeExecutable(t, dir, "ffmpeg", "ffmpeg version test")
	writeExecutable(t, dir, "ffprobe", "12.500000")

	service := NewService(ffmpeg, nil)

	if !service.Available() {
		t.Fatal("Expected ffmpeg to be available")
	}
	if service.Location() != dir {
		t.Errorf("Expected location %s, got %s", dir, service.Location())
	}

	duration, err := service.Duration(context.Background(), "/some/file.mp4")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if duration != 12.5 {
		t.Errorf("Expected duration 12.5, got %f", duration)
	}
}

func TestService_Unavailable(t *testing.T) {
	service := &Service{}

	if service.Available() {
		t.Error("Expected service to be unavailable")
	}
	if service.Location() != "" {
		t.Errorf("Expected empty location, got %s", service.Location())
	}

	_, err := service.Duration(context.Background(), "/some/file.mp4")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}
