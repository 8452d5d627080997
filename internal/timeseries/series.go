package timeseries

import (
	"math"
	"sort"
	"time"
)

// Series is a single timestamp-indexed column.
type Series struct {
	Times  []time.Time
	Values []float64
}

// Agg reduces a set of observed (non-NaN) values to a single value.
type Agg func([]float64) float64

// Mean averages the values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Sum totals the values.
func Sum(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum
}

// Min returns the smallest value.
func Min(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value.
func Max(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Median returns the middle value.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// ResampleDaily buckets the series into UTC calendar days and reduces
// each bucket with the given aggregation. NaN observations are ignored;
// days with no observations are omitted.
func (s Series) ResampleDaily(agg Agg) Series {
	type bucket struct {
		day  time.Time
		vals []float64
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time
	for i, ts := range s.Times {
		v := s.Values[i]
		if math.IsNaN(v) {
			continue
		}
		day := time.Date(ts.UTC().Year(), ts.UTC().Month(), ts.UTC().Day(), 0, 0, 0, 0, time.UTC)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{day: day}
			buckets[day] = b
			order = append(order, day)
		}
		b.vals = append(b.vals, v)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := Series{
		Times:  make([]time.Time, 0, len(order)),
		Values: make([]float64, 0, len(order)),
	}
	for _, day := range order {
		out.Times = append(out.Times, day)
		out.Values = append(out.Values, agg(buckets[day].vals))
	}
	return out
}

// DayOfYearStats holds mean/max/min of the series values grouped across
// years by calendar day. Days carry the placeholder year 2000 so they
// plot as one synthetic year.
type DayOfYearStats struct {
	Days []time.Time
	Mean []float64
	Max  []float64
	Min  []float64
}

// GroupByDayOfYear groups the series across years by (month, day) and
// computes mean, max and min for each calendar day.
func (s Series) GroupByDayOfYear() DayOfYearStats {
	type key struct {
		month time.Month
		day   int
	}
	groups := make(map[key][]float64)
	for i, ts := range s.Times {
		v := s.Values[i]
		if math.IsNaN(v) {
			continue
		}
		k := key{month: ts.UTC().Month(), day: ts.UTC().Day()}
		groups[k] = append(groups[k], v)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].day < keys[j].day
	})

	stats := DayOfYearStats{}
	for _, k := range keys {
		vals := groups[k]
		stats.Days = append(stats.Days, time.Date(2000, k.month, k.day, 0, 0, 0, 0, time.UTC))
		stats.Mean = append(stats.Mean, Mean(vals))
		stats.Max = append(stats.Max, Max(vals))
		stats.Min = append(stats.Min, Min(vals))
	}
	return stats
}

// Stats summarizes a series for the report table.
type Stats struct {
	Count   int
	Mean    float64
	Median  float64
	Max     float64
	Min     float64
	MaxTime time.Time
	MinTime time.Time
}

// Summarize computes descriptive statistics over the non-NaN values.
// The second return value is false when the series holds no data.
func (s Series) Summarize() (Stats, bool) {
	var vals []float64
	var times []time.Time
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		times = append(times, s.Times[i])
	}
	if len(vals) == 0 {
		return Stats{}, false
	}

	st := Stats{
		Count:  len(vals),
		Mean:   Mean(vals),
		Median: Median(vals),
		Max:    vals[0],
		Min:    vals[0],
	}
	st.MaxTime, st.MinTime = times[0], times[0]
	for i, v := range vals {
		if v > st.Max {
			st.Max = v
			st.MaxTime = times[i]
		}
		if v < st.Min {
			st.Min = v
			st.MinTime = times[i]
		}
	}
	return st, true
}
