package argofetch

import (
	"strings"
	"testing"
)

func TestProfileURLsRewritesToOpendap(t *testing.T) {
	fx := newFixture(t, 3, fullDataset(), nil)
	catalogURL := fx.server.URL + "/thredds/catalog/CORIOLIS-ARGO-GDAC-OBS/aoml/1900722/profiles/catalog.xml"

	urls := fx.fetcher.ProfileURLs(catalogURL)
	if len(urls) != 3 {
		t.Fatalf("ProfileURLs returned %d locators, want 3", len(urls))
	}
	want := fx.server.URL + "/thredds/dodsC/aoml/1900722/profiles/D1900722_001.nc"
	if urls[0] != want {
		t.Fatalf("First locator is %s, want %s", urls[0], want)
	}
	for _, u := range urls {
		if !strings.HasSuffix(u, ".nc") {
			t.Fatalf("Non-dataset entry leaked into locators: %s", u)
		}
	}
}

func TestProfileURLsIgnoresNonDatasetEntries(t *testing.T) {
	// the fixture catalog carries a readme.txt entry alongside the
	// profile datasets
	fx := newFixture(t, 1, fullDataset(), nil)
	catalogURL := fx.server.URL + "/thredds/catalog/CORIOLIS-ARGO-GDAC-OBS/aoml/1900722/profiles/catalog.xml"
	urls := fx.fetcher.ProfileURLs(catalogURL)
	if len(urls) != 1 {
		t.Fatalf("ProfileURLs returned %d locators, want 1", len(urls))
	}
}

func TestProfileURLsReturnsEmptyOnConnectionFailure(t *testing.T) {
	fx := newFixture(t, 1, fullDataset(), nil)
	catalogURL := fx.server.URL + "/thredds/catalog/CORIOLIS-ARGO-GDAC-OBS/aoml/1900722/profiles/catalog.xml"
	fx.server.Close()
	// catalog absence for one float degrades to "no profiles", not an error
	if urls := fx.fetcher.ProfileURLs(catalogURL); len(urls) != 0 {
		t.Fatalf("Expected no locators from an unreachable catalog, got %v", urls)
	}
}

func TestProfileURLsReturnsEmptyOnHTTPError(t *testing.T) {
	fx := newFixture(t, 1, fullDataset(), nil)
	if urls := fx.fetcher.ProfileURLs(fx.server.URL + "/thredds/catalog/nope.xml"); len(urls) != 0 {
		t.Fatalf("Expected no locators from a 404 catalog, got %v", urls)
	}
}
