package timeseries

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFrameSetColumn(t *testing.T) {
	f := New([]time.Time{ts("2024-01-02 00:00"), ts("2024-01-01 00:00")})

	t.Run("times sorted ascending", func(t *testing.T) {
		require.Equal(t, 2, f.Len())
		assert.True(t, f.Times()[0].Before(f.Times()[1]))
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		err := f.SetColumn("t2m", []float64{1.0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "t2m")
	})

	t.Run("column stored in order", func(t *testing.T) {
		require.NoError(t, f.SetColumn("t2m", []float64{280, 281}))
		require.NoError(t, f.SetColumn("d2m", []float64{275, 276}))
		assert.Equal(t, []string{"t2m", "d2m"}, f.Columns())
	})
}

func TestFrameMerge(t *testing.T) {
	a := New([]time.Time{ts("2024-01-01 00:00"), ts("2024-01-01 01:00")})
	require.NoError(t, a.SetColumn("t2m", []float64{280, 281}))

	b := New([]time.Time{ts("2024-01-01 01:00"), ts("2024-01-01 02:00")})
	require.NoError(t, b.SetColumn("tp", []float64{0.1, 0.2}))

	merged := a.Merge(b)

	t.Run("outer union of timestamps", func(t *testing.T) {
		require.Equal(t, 3, merged.Len())
		assert.Equal(t, ts("2024-01-01 00:00"), merged.Times()[0])
		assert.Equal(t, ts("2024-01-01 02:00"), merged.Times()[2])
	})

	t.Run("column union with NaN gaps", func(t *testing.T) {
		t2m, ok := merged.Column("t2m")
		require.True(t, ok)
		assert.Equal(t, 280.0, t2m[0])
		assert.True(t, math.IsNaN(t2m[2]))

		tp, ok := merged.Column("tp")
		require.True(t, ok)
		assert.True(t, math.IsNaN(tp[0]))
		assert.Equal(t, 0.2, tp[2])
	})

	t.Run("first frame wins on shared columns", func(t *testing.T) {
		c := New([]time.Time{ts("2024-01-01 00:00")})
		require.NoError(t, c.SetColumn("t2m", []float64{999}))
		out := a.Merge(c)
		vals, _ := out.Column("t2m")
		assert.Equal(t, 280.0, vals[0])
	})
}

func TestSeriesResampleDaily(t *testing.T) {
	s := Series{
		Times: []time.Time{
			ts("2024-01-01 00:00"), ts("2024-01-01 12:00"),
			ts("2024-01-02 06:00"), ts("2024-01-02 18:00"),
		},
		Values: []float64{10, 20, 5, math.NaN()},
	}

	daily := s.ResampleDaily(Mean)
	require.Len(t, daily.Values, 2)
	assert.Equal(t, 15.0, daily.Values[0])
	assert.Equal(t, 5.0, daily.Values[1])

	sums := s.ResampleDaily(Sum)
	assert.Equal(t, 30.0, sums.Values[0])
}

func TestSeriesGroupByDayOfYear(t *testing.T) {
	s := Series{
		Times: []time.Time{
			ts("2022-03-05 00:00"), ts("2023-03-05 00:00"), ts("2024-03-05 00:00"),
			ts("2023-03-06 00:00"),
		},
		Values: []float64{10, 20, 30, 7},
	}

	stats := s.GroupByDayOfYear()
	require.Len(t, stats.Days, 2)
	assert.Equal(t, time.March, stats.Days[0].Month())
	assert.Equal(t, 5, stats.Days[0].Day())
	assert.Equal(t, 2000, stats.Days[0].Year())
	assert.Equal(t, 20.0, stats.Mean[0])
	assert.Equal(t, 30.0, stats.Max[0])
	assert.Equal(t, 10.0, stats.Min[0])
	assert.Equal(t, 7.0, stats.Mean[1])
}

func TestSeriesSummarize(t *testing.T) {
	s := Series{
		Times:  []time.Time{ts("2024-01-01 00:00"), ts("2024-01-02 00:00"), ts("2024-01-03 00:00")},
		Values: []float64{3, math.NaN(), 1},
	}

	st, ok := s.Summarize()
	require.True(t, ok)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, 2.0, st.Mean)
	assert.Equal(t, 2.0, st.Median)
	assert.Equal(t, 3.0, st.Max)
	assert.Equal(t, ts("2024-01-01 00:00"), st.MaxTime)
	assert.Equal(t, ts("2024-01-03 00:00"), st.MinTime)

	empty := Series{Times: s.Times, Values: []float64{math.NaN(), math.NaN(), math.NaN()}}
	_, ok = empty.Summarize()
	assert.False(t, ok)
}

func TestFrameWriteCSV(t *testing.T) {
	f := New([]time.Time{ts("2024-01-01 00:00")})
	require.NoError(t, f.SetColumn("temperature_c", []float64{6.85}))
	require.NoError(t, f.SetColumn("snow_cover", []float64{math.NaN()}))

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,temperature_c,snow_cover", lines[0])
	assert.Equal(t, "2024-01-01 00:00:00,6.85,", lines[1])
}
