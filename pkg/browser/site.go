package browser

import (
	"net/url"
	"strings"
)

// SiteName derives the site identifier from a URL. The identifier is the
// lowercase leftmost host label with any "www." prefix stripped, so
// "https://www.nwt.se/article" yields "nwt". It is the join key for stored
// auth states, login configurations, and credentials.
func SiteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
