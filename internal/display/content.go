package display

import (
	"fmt"
	"net/url"
)

// contentSchemes are the URL schemes a surface's web view may load.
var contentSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
}

// contentURI checks that raw is an absolute URL the web view can load.
// Routes without a front-end base URL are rejected.
func contentURI(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &DisplayError{Message: fmt.Sprintf("invalid content URL %q", raw), Cause: err}
	}
	if !u.IsAbs() {
		return "", &DisplayError{Message: fmt.Sprintf("content URL %q is not absolute, set frontend.base_url", raw)}
	}
	if !contentSchemes[u.Scheme] {
		return "", &DisplayError{Message: fmt.Sprintf("content URL %q has unsupported scheme %q", raw, u.Scheme)}
	}
	return u.String(), nil
}
