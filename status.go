package argofetch

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/argofetch/argofetch/cache"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StatusEntry is one row of the float status registry.
type StatusEntry struct {
	WMO      string `json:"wmo"`
	Oxygen   bool   `json:"oxygen"`
	Greylist bool   `json:"greylist"`
	Age      int    `json:"age"`
}

// EligibleFloats returns the WMO numbers of floats that carry an oxygen
// sensor, are not greylisted, and have a nonzero age of at least ageGte
// cycles. The status table is read through the cache; invalidation is
// deleting the cache file. Row order follows the status registry.
func (f *Fetcher) EligibleFloats(ageGte int) ([]string, error) {
	entries, err := f.statusEntries()
	if err != nil {
		return nil, err
	}
	var wmos []string
	for _, e := range entries {
		if e.Oxygen && !e.Greylist && e.Age != 0 && e.Age >= ageGte {
			wmos = append(wmos, e.WMO)
		}
	}
	return wmos, nil
}

func (f *Fetcher) statusEntries() ([]StatusEntry, error) {
	data, err := f.store.Get(statusKey)
	if errors.Is(err, cache.ErrEntryNotFound) {
		f.log.Debug().Msg("Could not read status from cache, loading it")
		entries, err := f.fetchStatus()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		if err := f.store.Put(statusKey, data); err != nil {
			return nil, err
		}
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []StatusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// fetchStatus reads the status registry. The endpoint serves UTF-16LE
// delimited text with a leading byte order mark.
func (f *Fetcher) fetchStatus() ([]StatusEntry, error) {
	f.log.Info().Msgf("Reading data from %s", f.statusURL)
	res, err := f.httpClient.Get(f.statusURL)
	if err != nil {
		return nil, &TransportError{URL: f.statusURL, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: f.statusURL, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	// UseBOM consumes the leading byte order mark
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	reader := csv.NewReader(transform.NewReader(res.Body, decoder))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &TransportError{URL: f.statusURL, Err: err}
	}
	if len(records) == 0 {
		return nil, &TransportError{URL: f.statusURL, Err: errors.New("empty status table")}
	}

	columns := statusColumns(records[0])
	for _, name := range []string{"WMO", "OXYGEN", "GREYLIST", "AGE"} {
		if _, ok := columns[name]; !ok {
			return nil, &TransportError{URL: f.statusURL, Err: fmt.Errorf("status table has no %s column", name)}
		}
	}

	entries := make([]StatusEntry, 0, len(records)-1)
	for _, record := range records[1:] {
		wmo, ok := field(record, columns["WMO"])
		if !ok || wmo == "" {
			continue
		}
		ageField, _ := field(record, columns["AGE"])
		age, err := strconv.Atoi(ageField)
		if err != nil {
			f.log.Warn().Msgf("Skipping status row for %s: bad age %q", wmo, ageField)
			continue
		}
		oxy, _ := field(record, columns["OXYGEN"])
		grey, _ := field(record, columns["GREYLIST"])
		entries = append(entries, StatusEntry{
			WMO:      wmo,
			Oxygen:   oxy == "1",
			Greylist: grey == "1",
			Age:      age,
		})
	}
	return entries, nil
}

func statusColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return columns
}

func field(record []string, i int) (string, bool) {
	if i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}
