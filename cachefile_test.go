package argofetch

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestMaxProfilesFromName(t *testing.T) {
	cases := map[string]int{
		"argofetch_age_340_max_profiles_20.db": 20,
		"max_profiles_1.db":                    1,
		"/var/cache/argo_max_profiles_300.db":  300,
		"argofetch_cache.db":                   0,
		"":                                     0,
		"max_profiles_.db":                     0,
	}
	for name, want := range cases {
		if got := maxProfilesFromName(name); got != want {
			t.Fatalf("maxProfilesFromName(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestEffectiveMaxProfilesPrefersTighterCap(t *testing.T) {
	logger := zerolog.Nop()
	fetcher := CreateFetcher(Config{CacheFile: "argo_max_profiles_5.db", Logger: &logger})
	if got := fetcher.effectiveMaxProfiles(10); got != 5 {
		t.Fatalf("Requested 10 against a file cap of 5, got %d", got)
	}
	if got := fetcher.effectiveMaxProfiles(3); got != 3 {
		t.Fatalf("Requested 3 against a file cap of 5, got %d", got)
	}
	if got := fetcher.effectiveMaxProfiles(0); got != 5 {
		t.Fatalf("Unbounded request against a file cap of 5, got %d", got)
	}
}
