package argofetch

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/argofetch/argofetch/cache"

	"github.com/jlaffaye/ftp"
)

// MetaEntry is one row of the global metadata index. File is a relative
// path of the form <data-center>/<float-id>/..., which assigns the float
// to its data assembly center.
type MetaEntry struct {
	File string `json:"file"`
}

// DacURLs returns the THREDDS profile catalog URL for each requested float,
// keyed by WMO number. The metadata index is read through the cache. Floats
// with no index row are silently absent from the result.
func (f *Fetcher) DacURLs(wmos []string) (map[string]string, error) {
	entries, err := f.globalMeta()
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(wmos))
	for _, wmo := range wmos {
		requested[wmo] = true
	}

	dacURLs := make(map[string]string)
	for _, e := range entries {
		parts := strings.Split(e.File, "/")
		if len(parts) < 2 {
			continue
		}
		wmo := parts[1]
		if requested[wmo] {
			dacURLs[wmo] = f.threddsURL + "/" + parts[0] + "/" + wmo + "/profiles/catalog.xml"
		}
	}
	f.log.Debug().Msgf("Found %d dac urls", len(dacURLs))
	return dacURLs, nil
}

func (f *Fetcher) globalMeta() ([]MetaEntry, error) {
	data, err := f.store.Get(globalMetaKey)
	if errors.Is(err, cache.ErrEntryNotFound) {
		f.log.Debug().Msg("Could not read global meta from cache, loading it")
		entries, err := f.fetchGlobalMeta()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		if err := f.store.Put(globalMetaKey, data); err != nil {
			return nil, err
		}
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []MetaEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// fetchGlobalMeta reads the metadata index: delimited text with comment
// lines prefixed by '#'. The index is published over FTP and mirrored over
// HTTP, so the URL scheme picks the transport.
func (f *Fetcher) fetchGlobalMeta() ([]MetaEntry, error) {
	f.log.Info().Msgf("Reading data from %s", f.globalMetaURL)
	u, err := url.Parse(f.globalMetaURL)
	if err != nil {
		return nil, &TransportError{URL: f.globalMetaURL, Err: err}
	}

	var body []byte
	if u.Scheme == "ftp" {
		body, err = f.ftpRead(u)
	} else {
		body, err = f.httpRead(f.globalMetaURL)
	}
	if err != nil {
		return nil, &TransportError{URL: f.globalMetaURL, Err: err}
	}
	entries, err := parseGlobalMeta(body)
	if err != nil {
		return nil, &TransportError{URL: f.globalMetaURL, Err: err}
	}
	return entries, nil
}

func (f *Fetcher) httpRead(rawURL string) ([]byte, error) {
	res, err := f.httpClient.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

func (f *Fetcher) ftpRead(u *url.URL) ([]byte, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, err
	}
	defer conn.Quit()
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, err
	}
	res, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return io.ReadAll(res)
}

func parseGlobalMeta(body []byte) ([]MetaEntry, error) {
	// strip comment lines before handing the rest to the csv reader
	var filtered bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		filtered.WriteString(line)
		filtered.WriteByte('\n')
	}

	reader := csv.NewReader(&filtered)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty metadata index")
	}

	fileCol := -1
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "file") {
			fileCol = i
			break
		}
	}
	if fileCol < 0 {
		return nil, errors.New("metadata index has no file column")
	}

	entries := make([]MetaEntry, 0, len(records)-1)
	for _, record := range records[1:] {
		if fileCol >= len(record) {
			continue
		}
		file := strings.TrimSpace(record[fileCol])
		if file == "" {
			continue
		}
		entries = append(entries, MetaEntry{File: file})
	}
	return entries, nil
}
