// Package datasource resolves an input location to a Source. A location is
// a local path, a file:// URL or an http(s):// URL.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"salaryetl/internal/datasource/file"
	"salaryetl/internal/datasource/httpds"
)

// Source opens the raw bytes of one input.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Resolve returns the Source for location. client serves http(s)
// locations; nil builds one with default settings.
func Resolve(location string, client *httpds.Client) (Source, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return nil, fmt.Errorf("datasource: empty location")
	}
	u, err := url.Parse(loc)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return file.NewLocal(loc), nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return file.NewLocal(loc), nil
	case "http", "https":
		if client == nil {
			client = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewSource(client, loc), nil
	}
	return nil, fmt.Errorf("datasource: unsupported scheme %q in %s", u.Scheme, loc)
}
