// Package archive reads point time-series datasets delivered as ZIP
// archives of CSV fragments (or bare legacy CSV files) and merges the
// fragments into one timestamp-indexed frame.
package archive

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nordwx/era5cli/internal/timeseries"
)

// timeColumns is the priority order for recognizing the timestamp column.
var timeColumns = []string{"timestamp", "valid_time", "time"}

var latColumns = []string{"latitude", "lat"}
var lonColumns = []string{"longitude", "lon"}

// timeLayouts are tried in order when parsing timestamps. Rows that match
// none of them are dropped rather than failing the load.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CorruptError indicates the archive could not be read. The message
// includes remediation guidance: the fix is to delete and re-download.
type CorruptError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("failed to open dataset for %q: %v. The file may be incomplete or corrupt. Delete the file and re-run download: %s",
		e.Dataset, e.Err, e.Path)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// ReadDataset reads a single CSV file or a ZIP archive of CSV fragments
// and returns one merged frame sorted by timestamp, with the first
// non-null latitude/longitude attached once as constant columns.
func ReadDataset(path string) (*timeseries.Frame, error) {
	dataset := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, &CorruptError{Dataset: dataset, Path: path, Err: err}
		}
		defer f.Close()
		frag, err := readFragment(f)
		if err != nil {
			if _, ok := err.(*csvReadError); ok {
				return nil, &CorruptError{Dataset: dataset, Path: path, Err: err}
			}
			return nil, err
		}
		return assemble([]*fragment{frag})
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &CorruptError{Dataset: dataset, Path: path, Err: err}
	}
	defer zr.Close()

	var members []*zip.File
	for _, member := range zr.File {
		if strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			members = append(members, member)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("archive %s contains no CSV files", path)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	var fragments []*fragment
	for _, member := range members {
		rc, err := member.Open()
		if err != nil {
			return nil, &CorruptError{Dataset: dataset, Path: path, Err: err}
		}
		frag, err := readFragment(rc)
		rc.Close()
		if err != nil {
			if _, ok := err.(*csvReadError); ok {
				return nil, &CorruptError{Dataset: dataset, Path: path, Err: err}
			}
			return nil, err
		}
		fragments = append(fragments, frag)
	}

	return assemble(fragments)
}

// fragment is one parsed CSV member before merging.
type fragment struct {
	frame *timeseries.Frame
	lat   *float64
	lon   *float64
}

type csvReadError struct{ err error }

func (e *csvReadError) Error() string { return e.err.Error() }
func (e *csvReadError) Unwrap() error { return e.err }

func readFragment(r io.Reader) (*fragment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &csvReadError{err: err}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV fragment is empty")
	}

	header := records[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	timeCol := firstPresent(colIndex, timeColumns)
	if timeCol == "" {
		return nil, fmt.Errorf("CSV is missing required time column ('timestamp' or 'valid_time' or 'time')")
	}
	latCol := firstPresent(colIndex, latColumns)
	lonCol := firstPresent(colIndex, lonColumns)

	// Data columns are everything except the time and coordinate columns.
	var dataCols []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name == timeCol || name == latCol || name == lonCol || name == "" {
			continue
		}
		dataCols = append(dataCols, name)
	}

	var times []time.Time
	values := make(map[string][]float64, len(dataCols))
	var lat, lon *float64

	for _, record := range records[1:] {
		ts, ok := parseTime(cell(record, colIndex[timeCol]))
		if !ok {
			continue // drop unparsable rows
		}
		times = append(times, ts)
		for _, name := range dataCols {
			values[name] = append(values[name], parseFloat(cell(record, colIndex[name])))
		}
		if latCol != "" && lat == nil {
			if v := parseFloat(cell(record, colIndex[latCol])); !math.IsNaN(v) {
				lat = &v
			}
		}
		if lonCol != "" && lon == nil {
			if v := parseFloat(cell(record, colIndex[lonCol])); !math.IsNaN(v) {
				lon = &v
			}
		}
	}

	frame := timeseries.New(times)
	// timeseries.New sorted the timestamps; realign values to that order
	// by building an index over the original observation order.
	perm := sortPermutation(times)
	for _, name := range dataCols {
		aligned := make([]float64, len(times))
		for i, src := range perm {
			aligned[i] = values[name][src]
		}
		if err := frame.SetColumn(name, aligned); err != nil {
			return nil, err
		}
	}

	return &fragment{frame: frame, lat: lat, lon: lon}, nil
}

// assemble merges the fragments and attaches the first non-null
// coordinates once on the merged result.
func assemble(fragments []*fragment) (*timeseries.Frame, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("CSV archive is empty after parsing")
	}

	merged := fragments[0].frame
	var lat, lon *float64
	for _, frag := range fragments {
		if frag != fragments[0] {
			merged = merged.Merge(frag.frame)
		}
		if lat == nil {
			lat = frag.lat
		}
		if lon == nil {
			lon = frag.lon
		}
	}

	if lat != nil {
		merged.PrependColumn("latitude", *lat, 0)
	}
	if lon != nil {
		pos := 0
		if lat != nil {
			pos = 1
		}
		merged.PrependColumn("longitude", *lon, pos)
	}
	return merged, nil
}

func firstPresent(colIndex map[string]int, candidates []string) string {
	for _, name := range candidates {
		if _, ok := colIndex[name]; ok {
			return name
		}
	}
	return ""
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseFloat(value string) float64 {
	if value == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func sortPermutation(times []time.Time) []int {
	perm := make([]int, len(times))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool { return times[perm[i]].Before(times[perm[j]]) })
	return perm
}
