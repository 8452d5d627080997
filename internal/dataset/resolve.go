package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListArchives returns every dataset archive in the data directory as
// (filename key, path) pairs, ZIP archives first, legacy CSVs after.
func ListArchives(dataDir string) []Archive {
	var results []Archive
	for _, pattern := range []string{"*.zip", "*.csv"} {
		matches, _ := filepath.Glob(filepath.Join(dataDir, pattern))
		sort.Strings(matches)
		for _, path := range matches {
			results = append(results, Archive{Key: stem(path), Path: path})
		}
	}
	return results
}

// Archive is one dataset file on disk.
type Archive struct {
	Key  string // filename without extension, the cache join key
	Path string
}

// FindDataset resolves a location name to its single archive path.
// It matches slug-with-coordinates filenames first and falls back to
// legacy filenames without coordinates. Zero matches and multiple
// matches are reported as distinct errors.
func FindDataset(dataDir, name string) (string, error) {
	slug := Slugify(name)

	matches, _ := filepath.Glob(filepath.Join(dataDir, slug+"_*.zip"))
	if len(matches) == 0 {
		matches, _ = filepath.Glob(filepath.Join(dataDir, slug+"_*.csv"))
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		for _, legacy := range []string{slug + ".zip", slug + ".csv"} {
			path := filepath.Join(dataDir, legacy)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		return "", &NotFoundError{Name: name}
	}
	if len(matches) > 1 {
		return "", &AmbiguousError{Name: name, Matches: matches}
	}
	return matches[0], nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
