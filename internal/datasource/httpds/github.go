package httpds

import (
	"net/url"
	"strings"
)

// RawGitHubURL rewrites https://github.com/<owner>/<repo>/blob/<ref>/<path>
// to https://raw.githubusercontent.com/<owner>/<repo>/<ref>/<path>. Any
// other URL is returned unchanged.
func RawGitHubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return raw
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 4)
	if len(parts) < 4 || parts[2] != "blob" {
		return raw
	}
	u.Host = "raw.githubusercontent.com"
	u.Path = "/" + parts[0] + "/" + parts[1] + "/" + parts[3]
	q := u.Query()
	q.Del("raw")
	u.RawQuery = q.Encode()
	return u.String()
}
