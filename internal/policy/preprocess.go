package policy

import (
	"net/url"
	"strings"
)

// NormalizeTitle prepares a title for embedding: trims, collapses
// whitespace runs and strips a leading bracketed tag such as "[공지]".
// The stored title keeps its original form; only the embedded text is
// normalized so near-identical titles from different sites score high.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	if strings.HasPrefix(t, "[") {
		if end := strings.Index(t, "]"); end > 0 {
			t = strings.TrimSpace(t[end+1:])
		}
	}
	return strings.Join(strings.Fields(t), " ")
}

// SitenameFromURL extracts the source-site label from a record URL: the
// host without a leading "www.". Returns "" for unparseable input.
func SitenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// WeightFor returns the site-trust weight for a (region, sitename)
// pair. District health-office sites carry their own region and get the
// highest trust; nationwide portals rank below them.
func WeightFor(region, sitename string) int {
	switch {
	case sitename == "" || region == "":
		return 1
	case strings.Contains(sitename, "bokjiro"):
		return 2
	case strings.Contains(sitename, "e-health") || strings.Contains(sitename, "ehealth"):
		return 2
	default:
		return 3
	}
}
