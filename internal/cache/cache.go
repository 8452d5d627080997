// Package cache holds the operations over the derived archive index:
// rebuilding it from disk, listing it with filters, and deleting a
// location from both the index and the filesystem. The cache is never
// the source of truth; it is fully reconstructable from the archives.
package cache

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nordwx/era5cli/internal/dataset"
	"github.com/nordwx/era5cli/internal/filter"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/internal/timeseries"
	"github.com/nordwx/era5cli/pkg/logger"
)

// maxWeatherRowsPerDataset caps the denormalized weather rows cached
// per archive; they assist filtered listing and are not needed for
// plotting.
const maxWeatherRowsPerDataset = 10000

// RefreshResult summarizes a rebuild.
type RefreshResult struct {
	Processed int
	Skipped   int
}

// Refresh drops and rebuilds the store from every archive in the data
// directory. Archives failing integrity validation are skipped and
// counted, never fatal.
func Refresh(dataDir string, store *sqlite.Store, log *logger.Logger) (RefreshResult, error) {
	refreshLogger := log.Named("cache")

	if err := store.Reset(); err != nil {
		return RefreshResult{}, err
	}

	var result RefreshResult
	for _, arch := range dataset.ListArchives(dataDir) {
		frame, err := dataset.LoadPath(arch.Path, arch.Key)
		if err != nil {
			refreshLogger.Warn("Skipping archive",
				logger.String("archive", arch.Key),
				logger.Error(err))
			result.Skipped++
			continue
		}
		if !dataset.ValidFrame(frame) {
			refreshLogger.Warn("Skipping archive with no usable data",
				logger.String("archive", arch.Key))
			result.Skipped++
			continue
		}

		loc := sqlite.Location{
			Filename: arch.Key,
			Name:     dataset.Humanize(arch.Key),
		}
		if lat, ok := frame.Column("latitude"); ok && len(lat) > 0 && !math.IsNaN(lat[0]) {
			v := lat[0]
			loc.Latitude = &v
		}
		if lon, ok := frame.Column("longitude"); ok && len(lon) > 0 && !math.IsNaN(lon[0]) {
			v := lon[0]
			loc.Longitude = &v
		}

		if err := store.UpsertLocation(loc); err != nil {
			return result, err
		}
		if err := store.InsertWeatherRows(loc, capTimes(frame)); err != nil {
			return result, err
		}
		result.Processed++
	}

	refreshLogger.Info("Cache rebuilt",
		logger.Int("processed", result.Processed),
		logger.Int("skipped", result.Skipped))
	return result, nil
}

func capTimes(frame *timeseries.Frame) []time.Time {
	times := frame.Times()
	if len(times) > maxWeatherRowsPerDataset {
		return times[:maxWeatherRowsPerDataset]
	}
	return times
}

// DeleteResult reports what a delete removed.
type DeleteResult struct {
	Found        bool
	DisplayName  string
	Country      string
	WeatherRows  int64
	LocationRows int64
	FilesRemoved []string
}

// Delete removes a location from both cache tables and from disk. The
// name is resolved through the cache first, falling back to its slug.
// Files matching the exact key and key-with-suffix patterns are removed.
func Delete(dataDir string, store *sqlite.Store, name string, log *logger.Logger) (DeleteResult, error) {
	deleteLogger := log.Named("cache")
	slug := dataset.Slugify(name)

	filename, found, err := store.ResolveKey(name, slug)
	if err != nil {
		return DeleteResult{}, err
	}
	if !found {
		filename = slug
	}

	result := DeleteResult{DisplayName: name, Country: "Unknown"}
	if loc, ok, err := store.GetLocation(filename); err != nil {
		return DeleteResult{}, err
	} else if ok {
		if loc.Name != "" {
			result.DisplayName = loc.Name
		}
		if loc.Country != "" {
			result.Country = loc.Country
		}
	}

	result.WeatherRows, result.LocationRows, err = store.DeleteByKey(filename)
	if err != nil {
		return DeleteResult{}, err
	}

	patterns := []string{
		filename + ".zip",
		filename + ".csv",
		filename + "_*.zip",
		filename + "_*.csv",
	}
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(filepath.Join(dataDir, pattern))
		sort.Strings(matches)
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				return result, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			deleteLogger.Debug("Removed archive file", logger.String("path", path))
			result.FilesRemoved = append(result.FilesRemoved, filepath.Base(path))
		}
	}

	result.Found = result.WeatherRows > 0 || result.LocationRows > 0 || len(result.FilesRemoved) > 0
	return result, nil
}

// Entry is one row of the listing output.
type Entry struct {
	Name    string
	Country string
	Lat     string
	Lon     string
}

// List queries cached locations, optionally filtered by the mini-DSL
// expression, sorted by country then name. Display names fall back to
// humanized slugs.
func List(store *sqlite.Store, filterExpr string) ([]Entry, error) {
	whereClause, err := filter.Translate(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	locations, err := store.QueryLocations(whereClause)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(locations))
	for _, loc := range locations {
		country := loc.Country
		if country == "" {
			country = "-"
		}
		entries = append(entries, Entry{
			Name:    dataset.DisplayName(loc.Filename, loc.Name),
			Country: country,
			Lat:     formatCoord(loc.Latitude),
			Lon:     formatCoord(loc.Longitude),
		})
	}
	return entries, nil
}

// FormatTable renders listing entries as an aligned text table.
func FormatTable(entries []Entry) string {
	headers := []string{"Name", "Country", "Lat", "Lon"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, e.Country, e.Lat, e.Lon}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmtRow := func(row []string) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		return strings.Join(cells, " | ")
	}

	var sb strings.Builder
	sb.WriteString(fmtRow(headers))
	sb.WriteString("\n")
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	sb.WriteString(strings.Join(seps, "-+-"))
	for _, row := range rows {
		sb.WriteString("\n")
		sb.WriteString(fmtRow(row))
	}
	return sb.String()
}

func formatCoord(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}
