package table

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Key identifies one pressure level of one profile. Pressure is rounded to
// one decimal, which is the discriminator for near-duplicate levels.
type Key struct {
	WMO      string    `json:"wmo"`
	Time     time.Time `json:"time"`
	Lon      float64   `json:"lon"`
	Lat      float64   `json:"lat"`
	Pressure float64   `json:"pressure"`
}

// RoundPressure rounds a pressure level to one decimal.
func RoundPressure(p float64) float64 {
	return math.Round(p*10) / 10
}

// id is the index form of the key. Keys are not compared as structs because
// time.Time equality is representation-sensitive after a decode round trip.
func (k Key) id() string {
	return fmt.Sprintf("%s|%d|%g|%g|%g", k.WMO, k.Time.UnixNano(), k.Lon, k.Lat, k.Pressure)
}

// Row is one pressure level with its measurement values. A nil value marks
// a measurement that is missing or was reported as NaN.
type Row struct {
	Key    Key                 `json:"key"`
	Values map[string]*float64 `json:"values"`
}

// Table is an insertion-ordered tabular fragment: named value columns plus
// rows unique by composite key. Adding a row under an existing key replaces
// the previous row. The zero-row table is the memoized "fetched but no
// usable data" signal and still round-trips through the cache.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// New creates an empty table with the given value columns.
func New(columns ...string) *Table {
	return &Table{
		Columns: columns,
		index:   make(map[string]int),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether the named value column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddRow inserts a row, replacing any existing row with the same key.
func (t *Table) AddRow(key Key, values map[string]*float64) {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[key.id()]; ok {
		t.Rows[i] = Row{Key: key, Values: values}
		return
	}
	t.index[key.id()] = len(t.Rows)
	t.Rows = append(t.Rows, Row{Key: key, Values: values})
}

// Append merges all rows of other into t, preserving row order and adding
// any columns t does not have yet. Composite-key uniqueness is kept: a row
// whose key is already present replaces the earlier one.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	for _, c := range other.Columns {
		if !t.HasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}
	for _, row := range other.Rows {
		t.AddRow(row.Key, row.Values)
	}
}

// Column returns the value series of the named column in row order.
// Absent values come back as nil.
func (t *Table) Column(name string) []*float64 {
	vals := make([]*float64, len(t.Rows))
	for i, row := range t.Rows {
		vals[i] = row.Values[name]
	}
	return vals
}

// AllNull reports whether the named column has no non-nil value. An absent
// column and a column of only nils both count as all-null.
func (t *Table) AllNull(name string) bool {
	for _, row := range t.Rows {
		if row.Values[name] != nil {
			return false
		}
	}
	return true
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		t.index[row.Key.id()] = i
	}
}

type tableJSON struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Encode serializes the table for storage as a cache entry.
func (t *Table) Encode() ([]byte, error) {
	return json.Marshal(tableJSON{Columns: t.Columns, Rows: t.Rows})
}

// Decode reconstructs a table from its serialized form.
func Decode(data []byte) (*Table, error) {
	var tj tableJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return nil, err
	}
	t := &Table{Columns: tj.Columns, Rows: tj.Rows}
	t.reindex()
	return t, nil
}
