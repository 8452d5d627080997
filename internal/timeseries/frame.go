// Package timeseries implements the small tabular engine used by the
// loading and reporting pipeline: a wide table of float columns indexed
// by timestamp, with outer merging, daily resampling and day-of-year
// grouping.
package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"
)

// Frame is a timestamp-indexed table of float64 columns. Missing values
// are represented as NaN. Rows are kept sorted by timestamp ascending.
type Frame struct {
	times []time.Time
	order []string
	cols  map[string][]float64
}

// New creates an empty frame over the given timestamps. The timestamps
// are sorted ascending.
func New(times []time.Time) *Frame {
	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return &Frame{
		times: sorted,
		cols:  make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.times) }

// Times returns the row timestamps in ascending order.
func (f *Frame) Times() []time.Time { return f.times }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string { return f.order }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.order) }

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.cols[name]
	return vals, ok
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return len(f.times) == 0 || len(f.order) == 0
}

// SetColumn adds or replaces a column. The value slice length must match
// the number of rows.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.times) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(f.times))
	}
	if _, exists := f.cols[name]; !exists {
		f.order = append(f.order, name)
	}
	f.cols[name] = values
	return nil
}

// SetConstantColumn adds or replaces a column holding the same value in
// every row.
func (f *Frame) SetConstantColumn(name string, value float64) {
	values := make([]float64, len(f.times))
	for i := range values {
		values[i] = value
	}
	// length always matches, error impossible
	_ = f.SetColumn(name, values)
}

// PrependColumn inserts a constant column at the given position in the
// column order, as used for the latitude/longitude metadata columns.
func (f *Frame) PrependColumn(name string, value float64, position int) {
	f.SetConstantColumn(name, value)
	if len(f.order) < 2 {
		return
	}
	// SetConstantColumn appended the name; move it to position
	f.order = f.order[:len(f.order)-1]
	if position > len(f.order) {
		position = len(f.order)
	}
	f.order = append(f.order[:position], append([]string{name}, f.order[position:]...)...)
}

// Merge combines two frames by outer union of timestamps and columns.
// Where both frames carry the same column, values from the receiver win
// and NaN gaps are filled from the other frame.
func (f *Frame) Merge(other *Frame) *Frame {
	seen := make(map[int64]struct{}, len(f.times)+len(other.times))
	union := make([]time.Time, 0, len(f.times)+len(other.times))
	for _, frame := range []*Frame{f, other} {
		for _, ts := range frame.times {
			key := ts.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, ts)
		}
	}

	merged := New(union)
	index := make(map[int64]int, len(merged.times))
	for i, ts := range merged.times {
		index[ts.UnixNano()] = i
	}

	realign := func(frame *Frame, name string) []float64 {
		out := make([]float64, len(merged.times))
		for i := range out {
			out[i] = math.NaN()
		}
		src := frame.cols[name]
		for i, ts := range frame.times {
			out[index[ts.UnixNano()]] = src[i]
		}
		return out
	}

	for _, name := range f.order {
		_ = merged.SetColumn(name, realign(f, name))
	}
	for _, name := range other.order {
		aligned := realign(other, name)
		if existing, ok := merged.cols[name]; ok {
			for i, v := range existing {
				if math.IsNaN(v) {
					existing[i] = aligned[i]
				}
			}
			continue
		}
		_ = merged.SetColumn(name, aligned)
	}
	return merged
}

// Series returns a single named column together with its timestamps.
func (f *Frame) Series(name string) (Series, bool) {
	vals, ok := f.cols[name]
	if !ok {
		return Series{}, false
	}
	return Series{Times: f.times, Values: vals}, true
}

// WriteCSV writes the frame as CSV with a leading timestamp column.
// NaN cells are written empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"timestamp"}, f.order...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(header))
	for i, ts := range f.times {
		row[0] = ts.UTC().Format("2006-01-02 15:04:05")
		for j, name := range f.order {
			v := f.cols[name][i]
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
