package report

import (
	"fmt"

	"github.com/nordwx/era5cli/internal/timeseries"
)

// SummaryRow is one variable's descriptive statistics for the report
// header table.
type SummaryRow struct {
	Variable string
	Points   int
	Start    string
	End      string
	Mean     string
	Median   string
	Max      string // value with timestamp
	Min      string // value with timestamp
}

const summaryTimeLayout = "2006-01-02 15:04"

// Summarize builds one row per populated column. Columns with no data
// are omitted.
func Summarize(frame *timeseries.Frame) []SummaryRow {
	if frame.Len() == 0 {
		return nil
	}
	start := frame.Times()[0].UTC().Format(summaryTimeLayout)
	end := frame.Times()[frame.Len()-1].UTC().Format(summaryTimeLayout)

	var rows []SummaryRow
	for _, name := range frame.Columns() {
		series, _ := frame.Series(name)
		stats, ok := series.Summarize()
		if !ok {
			continue
		}
		rows = append(rows, SummaryRow{
			Variable: name,
			Points:   stats.Count,
			Start:    start,
			End:      end,
			Mean:     fmt.Sprintf("%.2f", stats.Mean),
			Median:   fmt.Sprintf("%.2f", stats.Median),
			Max:      fmt.Sprintf("%.2f (%s)", stats.Max, stats.MaxTime.UTC().Format(summaryTimeLayout)),
			Min:      fmt.Sprintf("%.2f (%s)", stats.Min, stats.MinTime.UTC().Format(summaryTimeLayout)),
		})
	}
	return rows
}
