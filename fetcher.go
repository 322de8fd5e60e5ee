package argofetch

import (
	"math"
	"net/http"

	"github.com/argofetch/argofetch/cache"
	"github.com/argofetch/argofetch/pkg/opendap"

	"github.com/rs/zerolog"
)

// Reserved entries in the local store.
const (
	statusKey     = "status"
	globalMetaKey = "global_meta"
)

// Default endpoints of the Argo global data assembly infrastructure.
const (
	DefaultStatusURL     = "http://argo.jcommops.org/FTPRoot/Argo/Status/argo_all.txt"
	DefaultGlobalMetaURL = "ftp://ftp.ifremer.fr/ifremer/argo/ar_index_global_meta.txt"
	DefaultThreddsURL    = "http://tds0.ifremer.fr/thredds/catalog/CORIOLIS-ARGO-GDAC-OBS"
)

// DefaultCacheFile is used when no cache file is configured.
const DefaultCacheFile = "argofetch_cache.db"

// DefaultVariables are the variables extracted from profile datasets when
// none are configured. Coordinates are included: they are required for the
// composite row key.
var DefaultVariables = []string{
	"TEMP_ADJUSTED", "PSAL_ADJUSTED", "DOXY_ADJUSTED",
	"PRES_ADJUSTED", "LATITUDE", "LONGITUDE", "JULD",
}

// coordinates are never emitted as value columns; they form the row key.
var coordinates = map[string]bool{
	"PRES_ADJUSTED": true,
	"LATITUDE":      true,
	"LONGITUDE":     true,
	"JULD":          true,
}

type Config struct {
	// Storage for fetched datasets.
	// Defaults to a sqlite file store backed by CacheFile.
	Store cache.Provider
	// Path of the backing cache file. A name carrying a
	// "max_profiles_<N>" token caps future fetches at N.
	CacheFile string
	// Source URL for the float status registry.
	StatusURL string
	// Source URL for the global metadata index. An ftp:// URL is read
	// over FTP, anything else over HTTP.
	GlobalMetaURL string
	// Base URL of the THREDDS catalog tree.
	ThreddsURL string
	// Variables to extract from profile datasets, coordinates included.
	Variables []string
	// Memoize a profile as empty unless it has usable oxygen data.
	OxygenRequired bool
	// Opener for remote profile datasets. Defaults to an OPeNDAP client.
	Datasets opendap.Opener
	// HTTP client for the status and catalog endpoints.
	HTTPClient *http.Client
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

// Fetcher retrieves Argo float data through the local store: every unit of
// remote data is fetched at most once and memoized, including negative
// results. All I/O is synchronous and sequential.
type Fetcher struct {
	store          cache.Provider
	log            zerolog.Logger
	httpClient     *http.Client
	datasets       opendap.Opener
	statusURL      string
	globalMetaURL  string
	threddsURL     string
	variables      []string
	oxygenRequired bool
	cacheFileCap   int
}

// CreateFetcher initializes a fetcher instance, filling unset config
// fields with defaults.
func CreateFetcher(config Config) *Fetcher {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	cacheFile := config.CacheFile
	if cacheFile == "" {
		cacheFile = DefaultCacheFile
	}
	store := config.Store
	if store == nil {
		store = cache.NewFileStore(cacheFile)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	f := &Fetcher{
		store:          store,
		log:            logger.With().Str("cache", cacheFile).Logger(),
		httpClient:     httpClient,
		datasets:       config.Datasets,
		statusURL:      config.StatusURL,
		globalMetaURL:  config.GlobalMetaURL,
		threddsURL:     config.ThreddsURL,
		variables:      config.Variables,
		oxygenRequired: config.OxygenRequired,
		cacheFileCap:   maxProfilesFromName(config.CacheFile),
	}
	if f.statusURL == "" {
		f.statusURL = DefaultStatusURL
	}
	if f.globalMetaURL == "" {
		f.globalMetaURL = DefaultGlobalMetaURL
	}
	if f.threddsURL == "" {
		f.threddsURL = DefaultThreddsURL
	}
	if len(f.variables) == 0 {
		f.variables = DefaultVariables
	}
	if f.datasets == nil {
		f.datasets = opendap.NewClient(httpClient, &f.log)
	}
	return f
}

// effectiveMaxProfiles reconciles the requested cap with the cap encoded in
// the cache file name, so a named cache never fetches more than it intends.
// A zero request means unbounded.
func (f *Fetcher) effectiveMaxProfiles(requested int) int {
	adjusted := requested
	if f.cacheFileCap > 0 && (requested == 0 || requested > f.cacheFileCap) {
		f.log.Warn().Msgf("Requested max profiles %d exceeds cache file's %d", requested, f.cacheFileCap)
		adjusted = f.cacheFileCap
	}
	if adjusted == 0 {
		adjusted = math.MaxInt
	}
	return adjusted
}
