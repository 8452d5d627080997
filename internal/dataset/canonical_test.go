package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwx/era5cli/internal/timeseries"
)

// rawFrame builds a merged raw frame with the given short-code columns,
// one row per value set.
func rawFrame(t *testing.T, cols map[string][]float64) *timeseries.Frame {
	t.Helper()
	var n int
	for _, vals := range cols {
		n = len(vals)
		break
	}
	times := make([]time.Time, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	f := timeseries.New(times)
	for _, name := range []string{"latitude", "longitude", "t2m", "d2m", "tp", "ssrd", "strd", "snowc", "u10", "v10"} {
		if vals, ok := cols[name]; ok {
			require.NoError(t, f.SetColumn(name, vals))
		}
	}
	return f
}

func fullRaw(t *testing.T) *timeseries.Frame {
	return rawFrame(t, map[string][]float64{
		"latitude":  {57.7},
		"longitude": {11.9},
		"t2m":       {300.15},
		"d2m":       {280.15},
		"tp":        {0.001},
		"ssrd":      {120000},
		"strd":      {90000},
		"snowc":     {0},
		"u10":       {3.0},
		"v10":       {4.0},
	})
}

func TestCanonicalize(t *testing.T) {
	t.Run("full variable set yields closed canonical schema", func(t *testing.T) {
		out, err := Canonicalize(fullRaw(t), "gothenburg")
		require.NoError(t, err)

		want := append([]string{"latitude", "longitude"}, CanonicalColumnNames()...)
		want = append(want, "rh_perc", "windspeed_ms")
		assert.Equal(t, want, out.Columns())
	})

	t.Run("kelvin columns converted to celsius", func(t *testing.T) {
		out, err := Canonicalize(fullRaw(t), "gothenburg")
		require.NoError(t, err)

		temp, _ := out.Column("temperature_c")
		assert.InDelta(t, 27.0, temp[0], 1e-9)
		dew, _ := out.Column("dewpoint_c")
		assert.InDelta(t, 7.0, dew[0], 1e-9)
	})

	t.Run("magnus humidity", func(t *testing.T) {
		out, err := Canonicalize(fullRaw(t), "gothenburg")
		require.NoError(t, err)

		rh, _ := out.Column("rh_perc")
		assert.InDelta(t, 28.1, rh[0], 0.5)
	})

	t.Run("wind speed 3-4-5 triangle", func(t *testing.T) {
		out, err := Canonicalize(fullRaw(t), "gothenburg")
		require.NoError(t, err)

		ws, _ := out.Column("windspeed_ms")
		assert.Equal(t, 5.0, ws[0])
	})

	t.Run("missing variables reported together", func(t *testing.T) {
		raw := rawFrame(t, map[string][]float64{
			"t2m": {300.15},
			"d2m": {280.15},
			"u10": {1},
			"v10": {1},
		})
		_, err := Canonicalize(raw, "gothenburg")
		require.Error(t, err)

		var missing *MissingVariablesError
		require.ErrorAs(t, err, &missing)
		assert.ElementsMatch(t, []string{
			"total_precipitation",
			"surface_solar_radiation_downwards",
			"surface_thermal_radiation_downwards",
			"snow_cover",
		}, missing.Names)
	})

	t.Run("humidity sources absent fails by name", func(t *testing.T) {
		raw := rawFrame(t, map[string][]float64{"tp": {0.1}})
		_, err := Canonicalize(raw, "gothenburg")
		require.Error(t, err)

		var missing *MissingVariablesError
		require.ErrorAs(t, err, &missing)
		assert.Contains(t, missing.Names, "d2m")
		assert.Contains(t, missing.Names, "t2m")
	})

	t.Run("empty table fails naming location", func(t *testing.T) {
		raw := rawFrame(t, map[string][]float64{
			"t2m": {}, "d2m": {}, "tp": {}, "ssrd": {}, "strd": {}, "snowc": {}, "u10": {}, "v10": {},
		})
		_, err := Canonicalize(raw, "nowhere")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nowhere")
	})
}

func TestRelativeHumidity(t *testing.T) {
	t.Run("reference point", func(t *testing.T) {
		assert.InDelta(t, 28.1, RelativeHumidity(280.15, 300.15), 0.5)
	})

	t.Run("saturated air clamps at 100", func(t *testing.T) {
		assert.Equal(t, 100.0, RelativeHumidity(300.15, 300.15))
		assert.Equal(t, 100.0, RelativeHumidity(305.15, 300.15))
	})

	t.Run("NaN propagates", func(t *testing.T) {
		assert.True(t, math.IsNaN(RelativeHumidity(math.NaN(), 300.15)))
	})
}

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 57.7, 11.9, false},
		{"lat lower bound", -90, 0, false},
		{"lat upper bound", 90, 0, false},
		{"lon lower bound", 0, -180, false},
		{"lon upper bound era5 convention", 0, 360, false},
		{"lat too low", -90.01, 0, true},
		{"lat too high", 90.5, 0, true},
		{"lon too low", 0, -180.5, true},
		{"lon too high", 0, 360.5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lon)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
