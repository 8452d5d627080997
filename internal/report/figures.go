// Package report renders the canonical time-series into a static HTML
// page of charts: a summary table, temperature climatology and
// histogram, daily radiation maxima and precipitation climatology.
package report

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nordwx/era5cli/internal/timeseries"
)

const dayLayout = "Jan 02"

func requireSeries(frame *timeseries.Frame, name string) (timeseries.Series, error) {
	series, ok := frame.Series(name)
	if !ok {
		return timeseries.Series{}, fmt.Errorf("%s column required for plotting", name)
	}
	return series, nil
}

func dayLabels(stats timeseries.DayOfYearStats) []string {
	labels := make([]string, len(stats.Days))
	for i, day := range stats.Days {
		labels[i] = day.Format(dayLayout)
	}
	return labels
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			data[i] = opts.LineData{Value: nil}
		} else {
			data[i] = opts.LineData{Value: v}
		}
	}
	return data
}

// temperatureClimatology plots the day-of-year mean/max/min band of
// daily mean temperature across years.
func temperatureClimatology(frame *timeseries.Frame, name string) (*charts.Line, error) {
	series, err := requireSeries(frame, "temperature_c")
	if err != nil {
		return nil, err
	}
	stats := series.ResampleDaily(timeseries.Mean).GroupByDayOfYear()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Temperature daily climatology for %s", name)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Temperature (°C)"}),
	)
	line.SetXAxis(dayLabels(stats)).
		AddSeries("Mean", lineData(stats.Mean)).
		AddSeries("Max", lineData(stats.Max)).
		AddSeries("Min", lineData(stats.Min))
	return line, nil
}

// temperatureHistogram plots the distribution of hourly temperatures in
// 1°C bins.
func temperatureHistogram(frame *timeseries.Frame) (*charts.Bar, error) {
	series, err := requireSeries(frame, "temperature_c")
	if err != nil {
		return nil, err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range series.Values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return nil, fmt.Errorf("no temperature data for histogram")
	}

	first := int(math.Floor(lo))
	last := int(math.Ceil(hi))
	if last == first {
		last = first + 1
	}
	counts := make([]int, last-first)
	for _, v := range series.Values {
		if math.IsNaN(v) {
			continue
		}
		bin := int(math.Floor(v)) - first
		if bin >= len(counts) {
			bin = len(counts) - 1
		}
		counts[bin]++
	}

	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i := range counts {
		labels[i] = fmt.Sprintf("%d", first+i)
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Hourly temperature distribution"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Counts"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Temperature (°C)"}),
	)
	bar.SetXAxis(labels).AddSeries("temperature_c", data)
	return bar, nil
}

// radiationDailyMax plots the day-of-year mean of daily maximum solar
// and thermal radiation.
func radiationDailyMax(frame *timeseries.Frame, name string) (*charts.Line, error) {
	solar, err := requireSeries(frame, "surface_solar_radiation_downwards")
	if err != nil {
		return nil, err
	}
	thermal, err := requireSeries(frame, "surface_thermal_radiation_downwards")
	if err != nil {
		return nil, err
	}

	solarStats := solar.ResampleDaily(timeseries.Max).GroupByDayOfYear()
	thermalStats := thermal.ResampleDaily(timeseries.Max).GroupByDayOfYear()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Daily max radiation climatology for %s", name)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "J/m²"}),
	)
	line.SetXAxis(dayLabels(solarStats)).
		AddSeries("Solar (daily max mean)", lineData(solarStats.Mean)).
		AddSeries("Thermal (daily max mean)", lineData(thermalStats.Mean))
	return line, nil
}

// precipitationClimatology plots day-of-year mean/max/min of daily
// total precipitation.
func precipitationClimatology(frame *timeseries.Frame, name string) (*charts.Line, error) {
	series, err := requireSeries(frame, "total_precipitation")
	if err != nil {
		return nil, err
	}
	stats := series.ResampleDaily(timeseries.Sum).GroupByDayOfYear()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Daily total precipitation climatology for %s", name)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Precipitation (m)"}),
	)
	line.SetXAxis(dayLabels(stats)).
		AddSeries("Mean", lineData(stats.Mean)).
		AddSeries("Max", lineData(stats.Max)).
		AddSeries("Min", lineData(stats.Min))
	return line, nil
}
