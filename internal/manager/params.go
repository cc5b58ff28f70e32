package manager

import (
	"net/url"
	"strings"
)

// URL query parameters read from a share link.
const (
	ParamRoom      = "room"
	ParamUsername  = "username"
	ParamUsercolor = "usercolor"
)

// URLParams are the values a share link may carry. Empty means absent.
type URLParams struct {
	Room      string
	Username  string
	Usercolor string
}

// ParseQuery reads the sharing parameters from a raw query string. Values are
// trimmed; a malformed query yields no parameters.
func ParseQuery(query string) URLParams {
	q, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return URLParams{}
	}
	return URLParams{
		Room:      strings.TrimSpace(q.Get(ParamRoom)),
		Username:  strings.TrimSpace(q.Get(ParamUsername)),
		Usercolor: strings.TrimSpace(q.Get(ParamUsercolor)),
	}
}

// ParseURLParams reads the sharing parameters from a full share link.
func ParseURLParams(rawURL string) URLParams {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return URLParams{}
	}
	return ParseQuery(u.RawQuery)
}

// Location describes the host the session is served from.
type Location struct {
	Hostname string
	Origin   string
	BaseURL  string
}

// LocationFromURL derives a Location from a share link. baseURL overrides the
// link's path when set.
func LocationFromURL(rawURL, baseURL string) Location {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Location{Hostname: "localhost", BaseURL: baseURL}
	}
	if baseURL == "" {
		baseURL = "/"
	}
	return Location{
		Hostname: u.Hostname(),
		Origin:   u.Scheme + "://" + u.Host,
		BaseURL:  baseURL,
	}
}

// IsLocal reports whether the host is a loopback name.
func (l Location) IsLocal() bool {
	switch strings.ToLower(l.Hostname) {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// Join is the origin with the base path appended.
func (l Location) Join() string {
	if l.Origin == "" {
		return l.BaseURL
	}
	joined, err := url.JoinPath(l.Origin, l.BaseURL)
	if err != nil {
		return strings.TrimSuffix(l.Origin, "/") + "/" + strings.TrimPrefix(l.BaseURL, "/")
	}
	return joined
}
