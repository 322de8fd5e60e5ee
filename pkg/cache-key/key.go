package cachekey

import "regexp"

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Normalize converts a resource locator into a stable cache key by stripping
// every character outside the alphanumeric-and-underscore set. The result is
// a pure function of the locator. Two locators differing only in stripped
// characters collapse to the same key; the fully qualified URLs produced by
// the catalog reader keep keys distinct in practice.
func Normalize(locator string) string {
	return disallowed.ReplaceAllString(locator, "")
}
