package argofetch

import (
	"errors"
	"testing"
)

func TestDacURLsBuildsCatalogURLs(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	urls, err := fx.fetcher.DacURLs([]string{"1900722", "6900678"})
	if err != nil {
		t.Fatalf("DacURLs: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("DacURLs returned %d entries, want 2", len(urls))
	}
	want := fx.server.URL + "/thredds/catalog/CORIOLIS-ARGO-GDAC-OBS/aoml/1900722/profiles/catalog.xml"
	if urls["1900722"] != want {
		t.Fatalf("Catalog url for 1900722 is %s, want %s", urls["1900722"], want)
	}
}

func TestDacURLsSkipsUnknownFloats(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	urls, err := fx.fetcher.DacURLs([]string{"1900722", "9999999"})
	if err != nil {
		t.Fatalf("DacURLs: %v", err)
	}
	// a float with no index row is silently absent, not an error
	if len(urls) != 1 {
		t.Fatalf("DacURLs returned %d entries, want 1", len(urls))
	}
	if _, ok := urls["9999999"]; ok {
		t.Fatalf("Unknown float should be absent from the result")
	}
}

func TestDacURLsReadsThroughCache(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	if _, err := fx.fetcher.DacURLs([]string{"1900722"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !fx.store.Has("global_meta") {
		t.Fatalf("Metadata index was not cached under the reserved key")
	}

	fx.server.Close()
	urls, err := fx.fetcher.DacURLs([]string{"6900678"})
	if err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("Cached DacURLs returned %d entries, want 1", len(urls))
	}
}

func TestGlobalMetaTransportErrorPropagates(t *testing.T) {
	fx := newFixture(t, 0, fullDataset(), nil)
	fx.server.Close()
	_, err := fx.fetcher.DacURLs([]string{"1900722"})
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected a TransportError, got %v", err)
	}
}

func TestParseGlobalMetaSkipsComments(t *testing.T) {
	entries, err := parseGlobalMeta([]byte(metaCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parsed %d entries, want 2", len(entries))
	}
	if entries[0].File != "aoml/1900722/1900722_meta.nc" {
		t.Fatalf("First entry is %q", entries[0].File)
	}
}
