package argofetch

import (
	"regexp"
	"strconv"
)

// Cache file names may embed a maximum-profile-count token, e.g.
// "argo_age_340_max_profiles_20.db". The token caps what a fetch against
// that file will download, so a cache built for n profiles is never grown
// past its intent by a careless request.
var maxProfilesPattern = regexp.MustCompile(`max_profiles_([0-9]+)`)

// maxProfilesFromName parses the cap encoded in a cache file name.
// It returns 0 when the name carries no token.
func maxProfilesFromName(name string) int {
	m := maxProfilesPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
