package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwx/era5cli/internal/timeseries"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "gothenburg", Slugify("Gothenburg"))
	assert.Equal(t, "new-york", Slugify("  New   York "))
	assert.Equal(t, "dataset", Slugify("   "))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "New York", Humanize("new-york_40.7128_-74.0060"))
	assert.Equal(t, "City", Humanize("city"))
	assert.Equal(t, "_1_2", Humanize("_1_2"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Göteborg", DisplayName("gothenburg_57.7000_11.9000", "Göteborg"))
	assert.Equal(t, "Gothenburg", DisplayName("gothenburg_57.7000_11.9000", ""))
	// a stored name equal to the filename is a guess, not a display name
	assert.Equal(t, "City", DisplayName("city", "city"))
}

func TestArchiveFilename(t *testing.T) {
	assert.Equal(t, "gothenburg_57.7000_11.9000.zip", ArchiveFilename("Gothenburg", 57.7, 11.9))
}

func TestFindDataset(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	t.Run("absent reports not found", func(t *testing.T) {
		_, err := FindDataset(dir, "Nowhere")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Contains(t, err.Error(), "weather download")
	})

	t.Run("single match", func(t *testing.T) {
		touch("gothenburg_57.7000_11.9000.zip")
		path, err := FindDataset(dir, "Gothenburg")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "gothenburg_57.7000_11.9000.zip"), path)
	})

	t.Run("multiple matches are ambiguous", func(t *testing.T) {
		touch("gothenburg_58.0000_12.0000.zip")
		_, err := FindDataset(dir, "Gothenburg")
		var amb *AmbiguousError
		require.ErrorAs(t, err, &amb)
		assert.Len(t, amb.Matches, 2)
	})

	t.Run("legacy filename fallback", func(t *testing.T) {
		touch("oslo.zip")
		path, err := FindDataset(dir, "Oslo")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "oslo.zip"), path)
	})
}

func integrityFrame(t *testing.T, cols map[string][]float64, rows int) *timeseries.Frame {
	t.Helper()
	times := make([]time.Time, rows)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	f := timeseries.New(times)
	for name, vals := range cols {
		require.NoError(t, f.SetColumn(name, vals))
	}
	return f
}

func TestValidFrame(t *testing.T) {
	nan := math.NaN()

	t.Run("valid data", func(t *testing.T) {
		f := integrityFrame(t, map[string][]float64{
			"latitude": {57.7}, "longitude": {11.9},
			"temperature_c": {15.5}, "dewpoint_c": {10.2},
		}, 1)
		assert.True(t, ValidFrame(f))
	})

	t.Run("all data columns null", func(t *testing.T) {
		f := integrityFrame(t, map[string][]float64{
			"latitude": {57.7}, "longitude": {11.9},
			"temperature_c": {nan}, "dewpoint_c": {nan},
		}, 1)
		assert.False(t, ValidFrame(f))
	})

	t.Run("empty frame", func(t *testing.T) {
		assert.False(t, ValidFrame(timeseries.New(nil)))
		assert.False(t, ValidFrame(nil))
	})

	t.Run("one populated column is enough", func(t *testing.T) {
		f := integrityFrame(t, map[string][]float64{
			"latitude": {57.7}, "longitude": {11.9},
			"temperature_c": {15.5}, "dewpoint_c": {nan}, "total_precipitation": {nan},
		}, 1)
		assert.True(t, ValidFrame(f))
	})

	t.Run("metadata only is invalid", func(t *testing.T) {
		f := integrityFrame(t, map[string][]float64{
			"latitude": {57.7}, "longitude": {11.9},
		}, 1)
		assert.False(t, ValidFrame(f))
	})

	t.Run("partially null rows are valid", func(t *testing.T) {
		f := integrityFrame(t, map[string][]float64{
			"latitude": {57.7, 57.7}, "longitude": {11.9, 11.9},
			"temperature_c": {nan, 15.5}, "dewpoint_c": {nan, nan},
		}, 2)
		assert.True(t, ValidFrame(f))
	})
}
