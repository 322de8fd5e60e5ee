package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	argofetch "github.com/argofetch/argofetch"
	"github.com/argofetch/argofetch/cache"
	"github.com/argofetch/argofetch/table"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	cacheFileFlag      string
	ageFlag            int
	maxProfilesFlag    int
	serveFlag          bool
	portFlag           int
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&cacheFileFlag, "cache", "", "Cache file name (use 'memory' for an in-memory cache)")
	flag.IntVar(&ageFlag, "age", 340, "Minimum float age in cycles")
	flag.IntVar(&maxProfilesFlag, "max-profiles", 0, "Cap on profiles per float (0 = unbounded)")
	flag.BoolVar(&serveFlag, "serve", false, "Serve the fetched data over HTTP after the batch")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on with -serve")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	fetcherConfig := argofetch.Config{
		Logger: &log.Logger,
	}

	if configFilenameFlag != "" {
		config, err := getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read config file")
		}
		fetcherConfig.StatusURL = config.StatusURL
		fetcherConfig.GlobalMetaURL = config.GlobalMetaURL
		fetcherConfig.ThreddsURL = config.ThreddsURL
		fetcherConfig.Variables = config.Variables
		fetcherConfig.OxygenRequired = config.OxygenRequired
		fetcherConfig.CacheFile = config.CacheFile
	}

	if cacheFileFlag != "" {
		fetcherConfig.CacheFile = cacheFileFlag
	}
	if fetcherConfig.CacheFile == "memory" {
		fetcherConfig.CacheFile = ""
		fetcherConfig.Store = cache.NewMemStore()
	}

	fetcher := argofetch.CreateFetcher(fetcherConfig)

	// WMO numbers on the command line override the status-based selection
	floats := flag.Args()
	if len(floats) == 0 {
		var err error
		floats, err = fetcher.EligibleFloats(ageFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read float status registry")
		}
		log.Info().Msgf("%d floats with oxygen, age >= %d", len(floats), ageFlag)
	}

	data, err := fetcher.FloatData(floats, maxProfilesFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetch batch failed")
	}
	log.Info().Msgf("Fetched %d rows for %d floats", data.Len(), len(floats))

	if serveFlag {
		serve(floats, data)
	}
}

func serve(floats []string, data *table.Table) {
	r := chi.NewRouter()
	r.Get("/floats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, floats)
	})
	r.Get("/data", func(w http.ResponseWriter, req *http.Request) {
		encoded, err := data.Encode()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(encoded)
	})
	r.Get("/floats/{wmo}", func(w http.ResponseWriter, req *http.Request) {
		wmo := chi.URLParam(req, "wmo")
		subset := table.New(data.Columns...)
		for _, row := range data.Rows {
			if row.Key.WMO == wmo {
				subset.AddRow(row.Key, row.Values)
			}
		}
		if subset.Empty() {
			http.NotFound(w, req)
			return
		}
		encoded, err := subset.Encode()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(encoded)
	})

	log.Info().Msgf("Serving fetched data on port %d", portFlag)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", portFlag), r); err != nil {
		panic(err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Cannot encode response")
	}
}
