package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	// Create temporary directory for testing
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	// Directory should not exist initially
	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	// Create directory
	err := CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	// Directory should now exist
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	err = CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestFindFileByToken(t *testing.T) {
	tempDir := t.TempDir()
	token := "3f1c2a9e-token"

	writeFile(t, filepath.Join(tempDir, "other-file.mp4"), 1)
	writeFile(t, filepath.Join(tempDir, token+".mp4.part"), 1)
	writeFile(t, filepath.Join(tempDir, token+".f137.mp4"), 1)
	writeFile(t, filepath.Join(tempDir, token+".mp4"), 1)

	foundPath, err := FindFileByToken(tempDir, token)
	if err != nil {
		t.Fatalf("Failed to find file: %v", err)
	}

	expected := filepath.Join(tempDir, token+".mp4")
	if foundPath != expected {
		t.Errorf("Expected path %s, got %s", expected, foundPath)
	}
}

func TestFindFileByToken_OnlyPartialFiles(t *testing.T) {
	tempDir := t.TempDir()
	token := "partial-token"

	writeFile(t, filepath.Join(tempDir, token+".webm.part"), 1)
	writeFile(t, filepath.Join(tempDir, token+".ytdl"), 1)

	_, err := FindFileByToken(tempDir, token)
	if err == nil {
		t.Error("Expected error when only partial files exist, got nil")
	}
}

func TestFindFileByToken_EmptyToken(t *testing.T) {
	if _, err := FindFileByToken(t.TempDir(), ""); err == nil {
		t.Error("Expected error for empty token, got nil")
	}
}

func TestFindFileByToken_MissingDir(t *testing.T) {
	if _, err := FindFileByToken(filepath.Join(t.TempDir(), "missing"), "token"); err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}

func TestRemoveMatching(t *testing.T) {
	tempDir := t.TempDir()
	token := "remove-me"

	writeFile(t, filepath.Join(tempDir, token+".mp4.part"), 1)
	writeFile(t, filepath.Join(tempDir, token+".f251.webm"), 1)
	keep := filepath.Join(tempDir, "keep.mp4")
	writeFile(t, keep, 1)

	removed, err := RemoveMatching(tempDir, token)
	if err != nil {
		t.Fatalf("RemoveMatching failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("Expected 2 removed files, got %d", len(removed))
	}

	if _, err := os.Stat(keep); err != nil {
		t.Errorf("Unrelated file was removed: %v", err)
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 1 {
		t.Errorf("Expected 1 remaining file, got %d", len(entries))
	}
}

func TestRemoveFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "video.mp4")
	writeFile(t, path, 4)

	existed, err := RemoveFile(path)
	if err != nil || !existed {
		t.Fatalf("Expected file to be removed, existed=%v err=%v", existed, err)
	}

	// Second call is a no-op
	existed, err = RemoveFile(path)
	if err != nil || existed {
		t.Errorf("Expected idempotent removal, existed=%v err=%v", existed, err)
	}

	// Empty path is a no-op
	if existed, err := RemoveFile(""); err != nil || existed {
		t.Errorf("Expected no-op for empty path, existed=%v err=%v", existed, err)
	}
}

func TestRemoveFile_NonEmptyDirectory(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "busy")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "inner"), 1)

	if _, err := RemoveFile(dir); err == nil {
		t.Error("Expected error when removing a non-empty directory")
	}
}

func TestFileSize(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "clip.mp4")
	writeFile(t, path, 1234)

	size, err := FileSize(path)
	if err != nil {
		t.Fatalf("FileSize failed: %v", err)
	}
	if size != 1234 {
		t.Errorf("Expected size 1234, got %d", size)
	}

	if _, err := FileSize(tempDir); err == nil {
		t.Error("Expected error for directory")
	}
}
