package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cruisepulse/internal/config"
)

// FileInfo represents a result file in the results directory
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"created_at"`
}

// Discovery lists result files
type Discovery struct {
	dir string
}

// NewDiscovery creates a discovery over the results directory
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// FindResults returns the result files in the directory, newest first.
// Temp files left by an interrupted write are ignored.
func (d *Discovery) FindResults() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, config.ResultFilePrefix) || !config.IsResultFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

// FilterOlderThan returns the files last modified before cutoff
func FilterOlderThan(files []FileInfo, cutoff time.Time) []FileInfo {
	var filtered []FileInfo
	for _, file := range files {
		if file.ModTime.Before(cutoff) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}
