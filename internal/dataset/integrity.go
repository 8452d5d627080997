package dataset

import (
	"math"

	"github.com/nordwx/era5cli/internal/timeseries"
)

// metadataColumns carry location metadata rather than observations and
// do not count toward integrity.
var metadataColumns = map[string]bool{
	"latitude":  true,
	"longitude": true,
	"country":   true,
}

// ValidFrame reports whether a dataset holds real data: at least one
// non-metadata column with at least one non-null value. Empty tables and
// metadata-only tables are invalid.
func ValidFrame(f *timeseries.Frame) bool {
	if f == nil || f.Empty() {
		return false
	}
	for _, name := range f.Columns() {
		if metadataColumns[name] {
			continue
		}
		vals, _ := f.Column(name)
		for _, v := range vals {
			if !math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}
