package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwx/era5cli/pkg/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr(v float64) *float64 { return &v }

func TestUpsertLocation(t *testing.T) {
	store := newStore(t)

	loc := Location{
		Filename:  "gothenburg_57.7000_11.9000",
		Name:      "Gothenburg",
		Country:   "SE",
		Latitude:  ptr(57.7),
		Longitude: ptr(11.9),
	}
	require.NoError(t, store.UpsertLocation(loc))

	t.Run("conflict overwrites all columns", func(t *testing.T) {
		loc.Name = "Göteborg"
		loc.Country = "SWE"
		loc.Latitude = ptr(57.7089)
		require.NoError(t, store.UpsertLocation(loc))

		got, found, err := store.GetLocation(loc.Filename)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Göteborg", got.Name)
		assert.Equal(t, "SWE", got.Country)
		assert.Equal(t, 57.7089, *got.Latitude)

		rows, err := store.QueryLocations("")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("empty name and country stored as null", func(t *testing.T) {
		require.NoError(t, store.UpsertLocation(Location{Filename: "bare_0.0000_0.0000"}))

		rows, err := store.QueryLocations("country = 'SWE'")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestResolveKey(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.UpsertLocation(Location{
		Filename: "new-york_40.7000_-74.0000",
		Name:     "New York",
		Country:  "US",
	}))

	t.Run("by display name, case-insensitive", func(t *testing.T) {
		key, found, err := store.ResolveKey("NEW YORK", "irrelevant")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "new-york_40.7000_-74.0000", key)
	})

	t.Run("by exact filename key", func(t *testing.T) {
		key, found, err := store.ResolveKey("nope", "new-york_40.7000_-74.0000")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "new-york_40.7000_-74.0000", key)
	})

	t.Run("by slug prefix", func(t *testing.T) {
		key, found, err := store.ResolveKey("nope", "new-york")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "new-york_40.7000_-74.0000", key)
	})

	t.Run("no match", func(t *testing.T) {
		_, found, err := store.ResolveKey("atlantis", "atlantis")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestWeatherRows(t *testing.T) {
	store := newStore(t)
	loc := Location{Filename: "oslo_59.9000_10.7000", Name: "Oslo", Country: "NO"}
	require.NoError(t, store.UpsertLocation(loc))

	stamps := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.InsertWeatherRows(loc, stamps))

	t.Run("reinsert replaces previous rows", func(t *testing.T) {
		require.NoError(t, store.InsertWeatherRows(loc, stamps[:1]))

		weatherRows, locationRows, err := store.DeleteByKey(loc.Filename)
		require.NoError(t, err)
		assert.Equal(t, int64(1), weatherRows)
		assert.Equal(t, int64(1), locationRows)
	})

	t.Run("delete on empty store reports zero", func(t *testing.T) {
		weatherRows, locationRows, err := store.DeleteByKey(loc.Filename)
		require.NoError(t, err)
		assert.Zero(t, weatherRows)
		assert.Zero(t, locationRows)
	})
}
