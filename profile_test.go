package argofetch

import (
	"errors"
	"testing"
	"time"
)

func TestProfileTableBuildsCompositeIndex(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	tbl, err := fx.fetcher.profileTable("1900722", "http://example/D1900722_001.nc")
	if err != nil {
		t.Fatalf("profileTable: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Transformed table has %d rows, want one per pressure level", tbl.Len())
	}

	key := tbl.Rows[0].Key
	if key.WMO != "1900722" || key.Lon != -38.2 || key.Lat != 12.5 {
		t.Fatalf("Row key is %+v", key)
	}
	// JULD 21976.5 days after 1950-01-01 is 2010-03-03T12:00:00Z
	want := time.Date(2010, time.March, 3, 12, 0, 0, 0, time.UTC)
	if !key.Time.Equal(want) {
		t.Fatalf("Row time is %s, want %s", key.Time, want)
	}
	if key.Pressure != 5.1 {
		t.Fatalf("Row pressure is %g", key.Pressure)
	}

	// coordinates never show up as value columns
	for _, coord := range []string{"JULD", "LATITUDE", "LONGITUDE", "PRES_ADJUSTED"} {
		if tbl.HasColumn(coord) {
			t.Fatalf("Coordinate %s leaked into the value columns", coord)
		}
	}
}

func TestProfileTableRoundsPressureLevels(t *testing.T) {
	dataset := fullDataset()
	dataset.vars["PRES_ADJUSTED"] = []float64{5.14, 10.06, 20.33}
	fx := newFixture(t, 0, dataset, nil)
	tbl, err := fx.fetcher.profileTable("1900722", "http://example/p.nc")
	if err != nil {
		t.Fatalf("profileTable: %v", err)
	}
	want := []float64{5.1, 10.1, 20.3}
	for i, row := range tbl.Rows {
		if row.Key.Pressure != want[i] {
			t.Fatalf("Pressure level %d is %g, want %g", i, row.Key.Pressure, want[i])
		}
	}
}

func TestProfileTableMissingRequiredVariable(t *testing.T) {
	dataset := fullDataset()
	delete(dataset.vars, "JULD")
	fx := newFixture(t, 0, dataset, nil)
	_, err := fx.fetcher.profileTable("1900722", "http://example/p.nc")
	var required *RequiredVariableError
	if !errors.As(err, &required) {
		t.Fatalf("Expected RequiredVariableError, got %v", err)
	}
	if required.Variable != "JULD" {
		t.Fatalf("Error names %s, want JULD", required.Variable)
	}
}

func TestProfileTableMultiProfileFile(t *testing.T) {
	dataset := fullDataset()
	dataset.profiles = 4
	fx := newFixture(t, 0, dataset, nil)
	_, err := fx.fetcher.profileTable("1900722", "http://example/p.nc")
	var multi *MultiProfileError
	if !errors.As(err, &multi) {
		t.Fatalf("Expected MultiProfileError, got %v", err)
	}
	if multi.Profiles != 4 {
		t.Fatalf("Error reports %d profiles, want 4", multi.Profiles)
	}
}

func TestValidateOxygenKeepsUsableData(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	tbl, err := fx.fetcher.profileTable("1900722", "http://example/p.nc")
	if err != nil {
		t.Fatalf("profileTable: %v", err)
	}
	if got := fx.fetcher.validateOxygen(tbl, "http://example/p.nc"); got.Empty() {
		t.Fatalf("Usable oxygen data was discarded")
	}
}
