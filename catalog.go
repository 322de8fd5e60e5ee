package argofetch

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// ProfileURLs returns the OPeNDAP access URLs for the profiles listed in a
// THREDDS catalog. A failure to fetch the catalog is logged and yields an
// empty list: one float's missing catalog must not abort the batch.
// Catalogs are never cached, since new profiles keep arriving.
func (f *Fetcher) ProfileURLs(catalogURL string) []string {
	f.log.Debug().Msgf("Parsing %s", catalogURL)
	res, err := f.httpClient.Get(catalogURL)
	if err != nil {
		f.log.Error().Err(err).Msgf("Cannot open catalog url %s", catalogURL)
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		f.log.Error().Msgf("Cannot open catalog url %s: %s", catalogURL, res.Status)
		return nil
	}

	// a standard TDS serves OPeNDAP under dodsC next to the catalog root
	parts := strings.Split(catalogURL, "/")
	if len(parts) < 4 {
		f.log.Error().Msgf("Malformed catalog url %s", catalogURL)
		return nil
	}
	baseURL := strings.Join(parts[:4], "/") + "/dodsC/"

	var urls []string
	tokenizer := html.NewTokenizer(res.Body)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "dataset" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "urlpath" && strings.HasSuffix(attr.Val, ".nc") {
				urls = append(urls, baseURL+attr.Val)
			}
		}
	}
	return urls
}
