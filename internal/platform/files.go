package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File extensions to skip
var (
	// SkippedExtensions are yt-dlp leftovers that are never the final output
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FindFileByToken returns the file in dir whose name contains token.
// The final extension is chosen by the merge step, so only the token is known
// up front. Partial and metadata files are ignored.
func FindFileByToken(dir, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("file token is empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, token) || isSkippedFile(name) {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, name))
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("downloaded file not found for %s", token)
	}

	// Several matches mean the merge left intermediate streams behind
	// (e.g. <id>.f137.mp4); the shortest name is the merged output.
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], nil
}

// RemoveMatching deletes every file in dir whose name contains token,
// including partial files. It returns the paths it removed.
func RemoveMatching(dir, token string) ([]string, error) {
	if token == "" {
		return nil, fmt.Errorf("file token is empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), token) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		existed, err := RemoveFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if existed {
			removed = append(removed, path)
		}
	}
	return removed, errors.Join(errs...)
}

// RemoveFile deletes path. A missing file is not an error; the boolean
// reports whether something was removed.
func RemoveFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to remove %s: %w", path, err)
}

// FileSize returns the size of path in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// isSkippedFile checks if a filename is a temporary or metadata file
func isSkippedFile(filename string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
