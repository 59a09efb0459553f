package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const Extension = ".m4a"

type Entry struct {
	FilePath     string
	FileName     string
	FileSize     int64
	LastModified time.Time
}

// Metadata is what the index knows about a recording beyond the file itself.
type Metadata struct {
	FilePath        string
	PhoneNumber     string
	CallType        string
	DurationSeconds int
	FileSizeBytes   int64
	AudioSource     string
	StartedAt       time.Time
	IndexedAt       time.Time
}

func IsRecording(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// Merge combines listings from several directories, keeps the first entry
// per path and orders the result most recent first.
func Merge(listings ...[]Entry) []Entry {
	seen := map[string]struct{}{}
	out := []Entry{}
	for _, listing := range listings {
		for _, entry := range listing {
			key := filepath.Clean(entry.FilePath)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].FileName < out[j].FileName
		}
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out
}

// Within reports whether path is located inside one of dirs.
func Within(path string, dirs ...string) bool {
	clean := filepath.Clean(path)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		rel, err := filepath.Rel(filepath.Clean(dir), clean)
		if err != nil {
			continue
		}
		if rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
