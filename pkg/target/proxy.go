package target

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// ProxyConfig holds the proxy routing for one retrieval sequence.
// It is resolved once per sequence and never mutated afterwards.
type ProxyConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// NoProxy is the explicit direct-connection value.
var NoProxy = ProxyConfig{}

// IsProxy reports whether the configuration routes through a proxy.
// The zero value means a direct connection.
func (p ProxyConfig) IsProxy() bool {
	return p.Host != ""
}

// URL renders the proxy as a URL suitable for http.ProxyURL.
// Returns nil for the direct-connection value.
func (p ProxyConfig) URL() *url.URL {
	if !p.IsProxy() {
		return nil
	}
	u := &url.URL{
		Scheme: "http",
		Host:   p.Host + ":" + strconv.Itoa(p.Port),
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	return u
}

// ProxyFromEnv resolves the proxy configuration from the process
// environment. HTTP_PROXY is checked before http_proxy, first
// non-empty wins. An unset or empty variable yields NoProxy.
func ProxyFromEnv() (ProxyConfig, error) {
	value := os.Getenv("HTTP_PROXY")
	if value == "" {
		value = os.Getenv("http_proxy")
	}
	if value == "" {
		return NoProxy, nil
	}
	return ParseProxy(value)
}

// ParseProxy parses a proxy URL of the form
// http://[user[:password]@]host[:port].
func ParseProxy(raw string) (ProxyConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return NoProxy, fmt.Errorf("parse proxy %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return NoProxy, fmt.Errorf("proxy %q has no host", raw)
	}
	port := 80
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}
	cfg := ProxyConfig{
		Host: u.Hostname(),
		Port: port,
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}
