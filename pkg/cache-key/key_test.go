package cachekey

import "testing"

func TestNormalizeIsDeterministic(t *testing.T) {
	url := "http://tds0.ifremer.fr/thredds/dodsC/aoml/1900722/profiles/D1900722_001.nc"
	if Normalize(url) != Normalize(url) {
		t.Fatalf("Normalizing the same locator twice gave different keys")
	}
}

func TestNormalizeStripsDisallowedCharacters(t *testing.T) {
	key := Normalize("http://host/path?q=1&r=2.nc")
	for _, r := range key {
		ok := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("Key %q contains disallowed character %q", key, r)
		}
	}
}

func TestNormalizeKeepsDistinctLocatorsDistinct(t *testing.T) {
	a := Normalize("http://tds0.ifremer.fr/thredds/dodsC/aoml/1900722/profiles/D1900722_001.nc")
	b := Normalize("http://tds0.ifremer.fr/thredds/dodsC/aoml/1900722/profiles/D1900722_002.nc")
	if a == b {
		t.Fatalf("Distinct profile locators collapsed to the same key %q", a)
	}
}

// Locators differing only in stripped characters collapse to the same key.
// This is a documented collision risk of the normalization scheme.
func TestNormalizeCollapsesStrippedDifferences(t *testing.T) {
	if Normalize("a/b.nc") != Normalize("a.b/nc") {
		t.Fatalf("Expected locators differing only in stripped characters to collide")
	}
}
