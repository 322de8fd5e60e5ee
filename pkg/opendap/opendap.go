package opendap

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Dataset is one remote profile dataset addressed by an OPeNDAP URL.
// Value series are those of the first profile in the file.
type Dataset interface {
	// Has reports whether the named variable exists in the dataset.
	Has(name string) bool
	// Profiles returns the length of the N_PROF dimension.
	Profiles() int
	// Values returns the value series of the named variable.
	Values(name string) ([]float64, error)
}

// Opener opens remote datasets by locator URL.
type Opener interface {
	Open(url string) (Dataset, error)
}

// Client reads datasets over OPeNDAP using the DDS and ASCII responses,
// which THREDDS servers expose for every dataset under dodsC.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates an OPeNDAP client. A nil httpClient falls back to
// http.DefaultClient, a nil logger to a console logger.
func NewClient(httpClient *http.Client, logger *zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	var log zerolog.Logger
	if logger == nil {
		log = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		log = *logger
	}
	return &Client{httpClient: httpClient, log: log}
}

var (
	ddsVariable   = regexp.MustCompile(`(?m)^\s*(?:Byte|Int16|Int32|UInt16|UInt32|Float32|Float64|String)\s+(\w+)((?:\[[^\]]*\])*);`)
	ddsProfileDim = regexp.MustCompile(`\[N_PROF\s*=\s*(\d+)\]`)
)

// Open fetches the dataset structure (DDS) for url. Variable values are
// fetched lazily on first access.
func (c *Client) Open(url string) (Dataset, error) {
	c.log.Debug().Str("url", url).Msg("Opening dataset")
	body, err := c.get(url + ".dds")
	if err != nil {
		return nil, err
	}
	ds := &remoteDataset{
		client:    c,
		url:       url,
		variables: make(map[string]bool),
		profiles:  1,
	}
	for _, m := range ddsVariable.FindAllStringSubmatch(string(body), -1) {
		ds.variables[m[1]] = true
		if dim := ddsProfileDim.FindStringSubmatch(m[2]); dim != nil {
			if n, err := strconv.Atoi(dim[1]); err == nil && n > ds.profiles {
				ds.profiles = n
			}
		}
	}
	return ds, nil
}

func (c *Client) get(url string) ([]byte, error) {
	res, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", url, res.Status)
	}
	return io.ReadAll(res.Body)
}

type remoteDataset struct {
	client    *Client
	url       string
	variables map[string]bool
	profiles  int
	series    map[string][]float64
}

func (d *remoteDataset) Has(name string) bool {
	return d.variables[name]
}

func (d *remoteDataset) Profiles() int {
	return d.profiles
}

func (d *remoteDataset) Values(name string) ([]float64, error) {
	if vals, ok := d.series[name]; ok {
		return vals, nil
	}
	if !d.variables[name] {
		return nil, fmt.Errorf("%s not in %s", name, d.url)
	}
	body, err := d.client.get(d.url + ".ascii?" + name)
	if err != nil {
		return nil, err
	}
	vals, err := parseASCII(string(body), name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.url, err)
	}
	if d.series == nil {
		d.series = make(map[string][]float64)
	}
	d.series[name] = vals
	return vals, nil
}

// parseASCII extracts the value series for one variable from an OPeNDAP
// ASCII response. The response repeats the dataset structure, a separator
// line, then rows of comma-separated values introduced by the variable
// name (possibly with index brackets on each row).
func parseASCII(body, name string) ([]float64, error) {
	var vals []float64
	seen := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		fields := strings.Split(line, ",")
		first := strings.TrimSpace(fields[0])
		if !seen {
			if first == name || strings.HasPrefix(first, name+"[") || strings.HasPrefix(first, name+".") {
				seen = true
				vals = append(vals, parseFloats(fields[1:])...)
			}
			continue
		}
		if strings.HasPrefix(first, name+"[") {
			vals = append(vals, parseFloats(fields[1:])...)
			continue
		}
		if line == "" {
			break
		}
		parsed := parseFloats(fields)
		if len(parsed) != len(fields) {
			break
		}
		vals = append(vals, parsed...)
	}
	if !seen {
		return nil, fmt.Errorf("no values for %s", name)
	}
	return vals, nil
}

// parseFloats keeps only the fields that parse as numbers. NaN parses and
// is kept, so fill values survive to the transformer.
func parseFloats(fields []string) []float64 {
	vals := make([]float64, 0, len(fields))
	for _, field := range fields {
		if v, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			vals = append(vals, v)
		}
	}
	return vals
}
