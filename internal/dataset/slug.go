package dataset

import (
	"fmt"
	"strings"
)

// Slugify converts a location name to a filesystem-friendly slug.
func Slugify(name string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
	if slug == "" {
		return "dataset"
	}
	return slug
}

// ArchiveFilename builds the canonical archive name for a location:
// slug plus coordinates formatted to 4 decimal places.
func ArchiveFilename(name string, lat, lon float64) string {
	return fmt.Sprintf("%s_%.4f_%.4f.zip", Slugify(name), lat, lon)
}

// Humanize turns an archive filename key back into a display name: the
// part before the first underscore with dashes as spaces, title-cased.
// Used when the cache has no stored display name.
func Humanize(filename string) string {
	base := filename
	if idx := strings.Index(filename, "_"); idx >= 0 {
		base = filename[:idx]
	}
	human := strings.TrimSpace(strings.ReplaceAll(base, "-", " "))
	if human == "" {
		return filename
	}
	words := strings.Fields(human)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// DisplayName prefers a stored display name over a filename-derived
// guess. A stored name equal to the filename itself is treated as a
// guess and humanized instead.
func DisplayName(filename, stored string) string {
	stored = strings.TrimSpace(stored)
	if stored != "" && !strings.EqualFold(stored, filename) {
		return stored
	}
	return Humanize(filename)
}
