package argofetch

import (
	"math"
	"time"

	"github.com/argofetch/argofetch/table"
)

// juldEpoch is the reference date of the JULD coordinate, which counts
// fractional days.
var juldEpoch = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)

// profileTable converts one remote profile dataset into a tabular fragment
// keyed by (wmo, time, lon, lat, pressure). All configured variables must
// exist in the dataset; a variable whose value read fails afterwards is
// logged and omitted, tolerating servers exposing partial variable sets.
func (f *Fetcher) profileTable(wmo, locator string) (*table.Table, error) {
	f.log.Debug().Msgf("Opening %s", locator)
	ds, err := f.datasets.Open(locator)
	if err != nil {
		return nil, err
	}

	f.log.Debug().Msgf("Checking %s for our desired variables", locator)
	for _, v := range f.variables {
		if !ds.Has(v) {
			return nil, &RequiredVariableError{Variable: v, URL: locator}
		}
	}
	if n := ds.Profiles(); n != 1 {
		return nil, &MultiProfileError{URL: locator, Profiles: n}
	}

	juld, err := f.coordinate(ds, "JULD", locator)
	if err != nil {
		return nil, err
	}
	lon, err := f.coordinate(ds, "LONGITUDE", locator)
	if err != nil {
		return nil, err
	}
	lat, err := f.coordinate(ds, "LATITUDE", locator)
	if err != nil {
		return nil, err
	}
	pressures, err := ds.Values("PRES_ADJUSTED")
	if err != nil {
		return nil, &RequiredVariableError{Variable: "PRES_ADJUSTED", URL: locator}
	}

	when := juldEpoch.Add(time.Duration(juld * float64(24*time.Hour)))
	keys := make([]table.Key, len(pressures))
	for i, p := range pressures {
		keys[i] = table.Key{
			WMO:      wmo,
			Time:     when,
			Lon:      lon,
			Lat:      lat,
			Pressure: table.RoundPressure(p),
		}
	}

	// value columns are the configured non-coordinate variables that
	// could actually be read
	series := make(map[string][]float64)
	var columns []string
	for _, v := range f.variables {
		if coordinates[v] {
			continue
		}
		vals, err := ds.Values(v)
		if err != nil {
			f.log.Warn().Msgf("%s not in %s", v, locator)
			continue
		}
		series[v] = vals
		columns = append(columns, v)
		f.log.Debug().Msgf("Added %s to table", v)
	}

	tbl := table.New(columns...)
	for i, key := range keys {
		values := make(map[string]*float64, len(columns))
		for _, name := range columns {
			vals := series[name]
			if i < len(vals) && !math.IsNaN(vals[i]) {
				v := vals[i]
				values[name] = &v
			} else {
				values[name] = nil
			}
		}
		tbl.AddRow(key, values)
	}
	return tbl, nil
}

type dataset interface {
	Has(name string) bool
	Values(name string) ([]float64, error)
}

// coordinate reads a scalar coordinate of the single profile.
func (f *Fetcher) coordinate(ds dataset, name, locator string) (float64, error) {
	vals, err := ds.Values(name)
	if err != nil || len(vals) == 0 {
		return 0, &RequiredVariableError{Variable: name, URL: locator}
	}
	return vals[0], nil
}

// validateOxygen replaces a table without a single usable oxygen value by
// an empty table, so "no usable oxygen data" is memoized rather than the
// other variables being kept silently.
func (f *Fetcher) validateOxygen(tbl *table.Table, locator string) *table.Table {
	if tbl.AllNull("DOXY_ADJUSTED") {
		f.log.Warn().Msgf("Oxygen is all fill values in %s", locator)
		return table.New()
	}
	return tbl
}
