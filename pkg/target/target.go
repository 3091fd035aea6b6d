// Package target resolves raw address strings into structured targets
// and determines proxy routing for a retrieval sequence.
package target

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Target is a resolved http(s) address.
// It is a value type: redirects produce a new Target, fields are never
// mutated in place.
type Target struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string
}

// Resolve parses raw as an absolute http or https URI.
// The port is filled in from the scheme default when absent,
// so the canonical string form is stable for a given resource.
func Resolve(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	return fromURL(u)
}

func fromURL(u *url.URL) (Target, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("missing host in %q", u.String())
	}
	port := defaultPort(u.Scheme)
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Target{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Path:   path,
		Query:  u.RawQuery,
	}, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// String renders the canonical form scheme://host:port/path?query.
// The port is always explicit. Two targets for the same logical
// resource render identically, which makes the string usable as a
// cache key.
func (t Target) String() string {
	var b strings.Builder
	b.WriteString(t.Scheme)
	b.WriteString("://")
	b.WriteString(t.Host)
	b.WriteString(":")
	b.WriteString(strconv.Itoa(t.Port))
	b.WriteString(t.Path)
	if t.Query != "" {
		b.WriteString("?")
		b.WriteString(t.Query)
	}
	return b.String()
}

// URL converts the target back to a net/url URL.
// The default port for the scheme is elided so outgoing requests
// do not carry a redundant port in the Host header.
func (t Target) URL() *url.URL {
	host := t.Host
	if t.Port != defaultPort(t.Scheme) {
		host = t.Host + ":" + strconv.Itoa(t.Port)
	}
	return &url.URL{
		Scheme:   t.Scheme,
		Host:     host,
		Path:     t.Path,
		RawQuery: t.Query,
	}
}

// RequestURI returns the path and query for the request line.
func (t Target) RequestURI() string {
	if t.Query != "" {
		return t.Path + "?" + t.Query
	}
	return t.Path
}

// ResolveLocation resolves a Location header value against the
// current target. Relative references resolve against the target's
// scheme, host and port per RFC 3986, not by string concatenation.
func (t Target) ResolveLocation(location string) (Target, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return Target{}, fmt.Errorf("parse location %q: %w", location, err)
	}
	return fromURL(t.URL().ResolveReference(ref))
}
