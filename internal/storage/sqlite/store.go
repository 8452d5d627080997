// Package sqlite implements the derived, rebuildable cache index over
// downloaded archives: one locations row per dataset plus optional
// denormalized per-timestamp weather rows.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nordwx/era5cli/pkg/logger"
	_ "modernc.org/sqlite"
)

// DBFilename is the cache database file inside the data directory.
const DBFilename = "weather_cache.db"

// Location is one cached dataset.
type Location struct {
	Filename  string // archive filename key (stem), unique
	Name      string
	Country   string
	Latitude  *float64
	Longitude *float64
}

// Store is a SQLite-backed cache over the data directory. It assumes a
// single writer; every mutating operation runs on one short-lived
// connection owned by this handle.
type Store struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
}

// Path returns the cache database path for a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, DBFilename)
}

// Exists reports whether a cache database file is present.
func Exists(dataDir string) bool {
	_, err := os.Stat(Path(dataDir))
	return err == nil
}

// Open opens (creating if needed) the cache store for a data directory.
func Open(dataDir string, log *logger.Logger) (*Store, error) {
	storeLogger := log.Named("sqlite")
	dbPath := Path(dataDir)

	storeLogger.Debug("Opening cache store", logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &Store{db: db, path: dbPath, logger: storeLogger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS locations (
			filename TEXT PRIMARY KEY,
			name TEXT,
			country TEXT,
			latitude REAL,
			longitude REAL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS weather (
			filename TEXT,
			name TEXT,
			country TEXT,
			timestamp TIMESTAMP,
			latitude REAL,
			longitude REAL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create weather table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_weather_filename ON weather(filename)`)
	if err != nil {
		return fmt.Errorf("failed to create weather index: %w", err)
	}
	return nil
}

// Reset drops all cached rows; used by the rebuild operation.
func (s *Store) Reset() error {
	for _, table := range []string{"weather", "locations"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}
	return nil
}

// UpsertLocation inserts or overwrites the row for a filename key.
func (s *Store) UpsertLocation(loc Location) error {
	_, err := s.db.Exec(`
		INSERT INTO locations (filename, name, country, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, loc.Filename, nullable(loc.Name), nullable(loc.Country), loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("failed to upsert location %s: %w", loc.Filename, err)
	}
	return nil
}

// InsertWeatherRows stores denormalized per-timestamp rows for a
// dataset, replacing any previous rows for the same filename key.
func (s *Store) InsertWeatherRows(loc Location, timestamps []time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM weather WHERE filename = ?", loc.Filename); err != nil {
		return fmt.Errorf("failed to clear weather rows for %s: %w", loc.Filename, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO weather (filename, name, country, timestamp, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare weather insert: %w", err)
	}
	defer stmt.Close()

	for _, ts := range timestamps {
		if _, err := stmt.Exec(loc.Filename, nullable(loc.Name), nullable(loc.Country),
			ts.UTC().Format("2006-01-02 15:04:05"), loc.Latitude, loc.Longitude); err != nil {
			return fmt.Errorf("failed to insert weather row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit weather rows: %w", err)
	}
	return nil
}

// ResolveKey maps a display name (or slug) to the cached filename key.
// The second return value is false when the cache holds no match.
func (s *Store) ResolveKey(name, slug string) (string, bool, error) {
	row := s.db.QueryRow(`
		SELECT filename FROM locations
		WHERE lower(name) = lower(?)
		   OR filename = ?
		   OR filename LIKE ? || '_%'
		LIMIT 1
	`, name, slug, slug)

	var filename string
	switch err := row.Scan(&filename); err {
	case nil:
		return filename, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("failed to resolve cache key for %q: %w", name, err)
	}
}

// GetLocation fetches the stored row for a filename key.
func (s *Store) GetLocation(filename string) (Location, bool, error) {
	row := s.db.QueryRow(`
		SELECT filename, COALESCE(name, ''), COALESCE(country, ''), latitude, longitude
		FROM locations WHERE filename = ?
	`, filename)

	var loc Location
	switch err := row.Scan(&loc.Filename, &loc.Name, &loc.Country, &loc.Latitude, &loc.Longitude); err {
	case nil:
		return loc, true, nil
	case sql.ErrNoRows:
		return Location{}, false, nil
	default:
		return Location{}, false, fmt.Errorf("failed to load location %s: %w", filename, err)
	}
}

// DeleteByKey removes the rows for a filename key from both tables and
// returns the per-table row counts.
func (s *Store) DeleteByKey(filename string) (weatherRows, locationRows int64, err error) {
	res, err := s.db.Exec("DELETE FROM weather WHERE filename = ?", filename)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete weather rows for %s: %w", filename, err)
	}
	weatherRows, _ = res.RowsAffected()

	res, err = s.db.Exec("DELETE FROM locations WHERE filename = ?", filename)
	if err != nil {
		return weatherRows, 0, fmt.Errorf("failed to delete location row for %s: %w", filename, err)
	}
	locationRows, _ = res.RowsAffected()

	s.logger.Debug("Deleted cache rows",
		logger.String("filename", filename),
		logger.Int64("weather_rows", weatherRows),
		logger.Int64("location_rows", locationRows))
	return weatherRows, locationRows, nil
}

// QueryLocations returns cached locations, optionally restricted by a
// SQL predicate produced by the filter parser, sorted by country then
// name.
func (s *Store) QueryLocations(whereClause string) ([]Location, error) {
	query := `
		SELECT filename, COALESCE(name, ''), COALESCE(country, '-'), latitude, longitude
		FROM locations
	`
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY country, name ASC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("filter query error: %w", err)
	}
	defer rows.Close()

	var results []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Filename, &loc.Name, &loc.Country, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		results = append(results, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location rows: %w", err)
	}
	return results, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
