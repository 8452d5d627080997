// Package dataset turns raw ERA5-Land archives into the canonical
// time-series schema: human-readable column names, Celsius temperatures
// and derived humidity/wind-speed metrics.
package dataset

import (
	"math"

	"github.com/nordwx/era5cli/internal/archive"
	"github.com/nordwx/era5cli/internal/timeseries"
)

// Variables is the fixed ERA5-Land variable list requested on download.
var Variables = []string{
	"2m_dewpoint_temperature",
	"2m_temperature",
	"total_precipitation",
	"surface_solar_radiation_downwards",
	"surface_thermal_radiation_downwards",
	"surface_pressure",
	"snow_cover",
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
}

const kelvinOffset = 273.15

// Magnus formula coefficients (Celsius form).
const (
	magnusA = 17.27
	magnusB = 237.7
)

// mapping binds a canonical column to the raw source columns that may
// carry it. The first present source wins.
type mapping struct {
	Canonical string
	Sources   []string
	Kelvin    bool // converted to Celsius when set
}

// canonicalColumns is the closed canonical set, in output order.
var canonicalColumns = []mapping{
	{Canonical: "temperature_c", Sources: []string{"t2m"}, Kelvin: true},
	{Canonical: "dewpoint_c", Sources: []string{"d2m"}, Kelvin: true},
	{Canonical: "total_precipitation", Sources: []string{"tp"}},
	{Canonical: "surface_solar_radiation_downwards", Sources: []string{"ssrd"}},
	{Canonical: "surface_thermal_radiation_downwards", Sources: []string{"strd"}},
	{Canonical: "snow_cover", Sources: []string{"snowc"}},
	{Canonical: "windspeed_u_ms", Sources: []string{"u10"}},
	{Canonical: "windspeed_v_ms", Sources: []string{"v10"}},
}

// CanonicalColumnNames returns the canonical column set in output order.
func CanonicalColumnNames() []string {
	names := make([]string, len(canonicalColumns))
	for i, m := range canonicalColumns {
		names[i] = m.Canonical
	}
	return names
}

// Load reads the archive for a named location and canonicalizes it.
func Load(dataDir, name string) (*timeseries.Frame, error) {
	path, err := FindDataset(dataDir, name)
	if err != nil {
		return nil, err
	}
	return LoadPath(path, name)
}

// LoadPath reads a specific archive and canonicalizes it.
func LoadPath(path, name string) (*timeseries.Frame, error) {
	raw, err := archive.ReadDataset(path)
	if err != nil {
		return nil, err
	}
	return Canonicalize(raw, name)
}

// Canonicalize maps a merged raw frame to the canonical schema and adds
// the derived relative-humidity and wind-speed columns. Any canonical
// column without a raw source fails the whole load, naming every missing
// variable.
func Canonicalize(raw *timeseries.Frame, name string) (*timeseries.Frame, error) {
	out := timeseries.New(raw.Times())

	if lat, ok := raw.Column("latitude"); ok && len(lat) > 0 {
		out.PrependColumn("latitude", lat[0], 0)
	}
	if lon, ok := raw.Column("longitude"); ok && len(lon) > 0 {
		pos := 0
		if out.Has("latitude") {
			pos = 1
		}
		out.PrependColumn("longitude", lon[0], pos)
	}

	var missing []string
	for _, m := range canonicalColumns {
		source := ""
		for _, candidate := range m.Sources {
			if raw.Has(candidate) {
				source = candidate
				break
			}
		}
		if source == "" {
			missing = append(missing, m.Canonical)
			continue
		}
		vals, _ := raw.Column(source)
		converted := make([]float64, len(vals))
		for i, v := range vals {
			if m.Kelvin {
				converted[i] = v - kelvinOffset
			} else {
				converted[i] = v
			}
		}
		if err := out.SetColumn(m.Canonical, converted); err != nil {
			return nil, err
		}
	}

	if err := addRelativeHumidity(out, raw); err != nil {
		return nil, err
	}
	if err := addWindSpeed(out, raw); err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		return nil, &MissingVariablesError{Names: missing}
	}
	if out.Empty() {
		return nil, &EmptyDatasetError{Name: name}
	}
	return out, nil
}

// addRelativeHumidity derives rh_perc from the raw dewpoint and
// temperature (both Kelvin) using the Magnus formula, clamped to [0,100].
func addRelativeHumidity(out, raw *timeseries.Frame) error {
	var missing []string
	for _, col := range []string{"d2m", "t2m"} {
		if !raw.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingVariablesError{Names: missing}
	}

	d2m, _ := raw.Column("d2m")
	t2m, _ := raw.Column("t2m")
	rh := make([]float64, len(d2m))
	for i := range rh {
		rh[i] = RelativeHumidity(d2m[i], t2m[i])
	}
	return out.SetColumn("rh_perc", rh)
}

// RelativeHumidity computes relative humidity (%) from dewpoint and
// temperature in Kelvin via the Magnus formula.
func RelativeHumidity(dewpointK, temperatureK float64) float64 {
	td := dewpointK - kelvinOffset
	t := temperatureK - kelvinOffset
	rh := 100.0 * math.Exp((magnusA*td)/(magnusB+td)-(magnusA*t)/(magnusB+t))
	if rh < 0 {
		return 0
	}
	if rh > 100 {
		return 100
	}
	return rh
}

// addWindSpeed derives the scalar wind speed from the raw vector
// components.
func addWindSpeed(out, raw *timeseries.Frame) error {
	var missing []string
	for _, col := range []string{"u10", "v10"} {
		if !raw.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingVariablesError{Names: missing}
	}

	u, _ := raw.Column("u10")
	v, _ := raw.Column("v10")
	speed := make([]float64, len(u))
	for i := range speed {
		speed[i] = math.Hypot(u[i], v[i])
	}
	return out.SetColumn("windspeed_ms", speed)
}
