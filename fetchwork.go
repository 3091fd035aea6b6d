// Package fetchwork retrieves single resources over HTTP and HTTPS.
// It follows redirects up to a bounded depth, routes through an
// optional proxy, and attaches cache validators for conditional
// retrieval. One Fetcher may serve concurrent retrieval sequences;
// the only shared mutable state is the validator store.
package fetchwork

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fetchwork/fetchwork/pkg/bodywriter"
	"github.com/fetchwork/fetchwork/pkg/target"
	"github.com/fetchwork/fetchwork/validators"
)

const (
	// DefaultRedirectBudget is the number of redirect hops a single
	// retrieval sequence may follow before failing.
	DefaultRedirectBudget = 6

	// DefaultTimeout bounds connection open and body read per hop.
	// There is no sequence-wide deadline: a chain of N hops may take
	// up to N times this value.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when the config does not set one.
	DefaultUserAgent = "fetchwork/1.0"
)

type Config struct {
	// Storage for cache validators. Optional: without a store the
	// fetcher never sends conditional headers.
	Validators validators.Store
	// Do not consult the validator store even when one is set.
	DisableValidators bool
	// User-Agent header attached to every request.
	UserAgent string
	// Proxy routing override. When nil, the proxy is resolved from
	// the environment once per retrieval sequence.
	Proxy *target.ProxyConfig
	// Insecure disables TLS certificate verification for https hops.
	// This weakens transport security and is never the default.
	Insecure bool
	// Per-hop timeout. DefaultTimeout is used when zero.
	Timeout time.Duration
	// RedirectBudget overrides DefaultRedirectBudget when positive.
	RedirectBudget int
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

// Fetcher retrieves resources. Safe for concurrent use.
type Fetcher struct {
	store         validators.Store
	useValidators bool
	userAgent     string
	proxy         *target.ProxyConfig
	insecure      bool
	timeout       time.Duration
	budget        int
	log           zerolog.Logger
}

// New initializes a fetcher from the config,
// filling in defaults for unset fields.
func New(config Config) *Fetcher {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	f := &Fetcher{
		store:         config.Validators,
		useValidators: !config.DisableValidators,
		userAgent:     config.UserAgent,
		proxy:         config.Proxy,
		insecure:      config.Insecure,
		timeout:       config.Timeout,
		budget:        config.RedirectBudget,
		log:           logger,
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.timeout == 0 {
		f.timeout = DefaultTimeout
	}
	if f.budget <= 0 {
		f.budget = DefaultRedirectBudget
	}
	return f
}

// UseValidators toggles consultation of the validator store for
// subsequent retrieval sequences. Not synchronized with sequences
// already in flight.
func (f *Fetcher) UseValidators(enabled bool) {
	f.useValidators = enabled
}

// Fetch retrieves the resource at raw, following redirects.
//
// On a 200 or 304 the outcome is returned with a nil error. On a
// terminal error status the outcome is returned together with a
// *StatusError so callers can still inspect headers. Transport
// failures return a *TransportError and no outcome; they are never
// retried.
func (f *Fetcher) Fetch(raw string) (*Outcome, error) {
	current, err := target.Resolve(raw)
	if err != nil {
		return nil, &InvalidReferenceError{Raw: raw, Err: err}
	}

	proxy, err := f.resolveProxy()
	if err != nil {
		return nil, err
	}
	client := f.newClient(proxy)

	log := f.log.With().
		Str("target", current.String()).
		Str("sequence", uuid.NewString()).
		Logger()
	if proxy.IsProxy() {
		log.Debug().Str("proxy", proxy.Host).Int("proxyPort", proxy.Port).Msg("Routing through proxy")
	}

	budget := f.budget
	for {
		res, err := f.issue(client, current, log)
		if err != nil {
			log.Error().Err(err).Msg("Transport failure")
			return nil, &TransportError{Target: current.String(), Err: err}
		}
		outcome, err := newOutcome(res)
		if err != nil {
			log.Error().Err(err).Msg("Could not read response body")
			return nil, &TransportError{Target: current.String(), Err: err}
		}
		outcome.Target = current.String()

		action := Classify(outcome.StatusCode)
		log.Debug().
			Int("status", outcome.StatusCode).
			Str("action", action.String()).
			Int("budget", budget).
			Msg("Classified response")

		switch action {
		case ActionSuccess, ActionNotModified:
			return outcome, nil
		case ActionRedirect:
			location := outcome.Header.Get("Location")
			if location == "" {
				log.Error().Int("status", outcome.StatusCode).Msg("Redirect without location")
				return outcome, &StatusError{StatusCode: outcome.StatusCode, Status: outcome.Status}
			}
			if budget == 0 {
				log.Error().Str("location", location).Msg("Redirect budget exhausted")
				return nil, &RedirectLoopError{Budget: f.budget, Location: location}
			}
			budget--
			next, err := current.ResolveLocation(location)
			if err != nil {
				return outcome, &InvalidReferenceError{Raw: location, Err: err}
			}
			log.Trace().Str("location", next.String()).Msg("Following redirect")
			current = next
		default:
			return outcome, &StatusError{StatusCode: outcome.StatusCode, Status: outcome.Status}
		}
	}
}

// FetchText retrieves the resource and returns its body as text.
// Any status other than 200, including 304, is an error.
func (f *Fetcher) FetchText(raw string) (string, error) {
	body, err := f.FetchBytes(raw)
	return string(body), err
}

// FetchBytes retrieves the resource and returns its body.
// Any status other than 200, including 304, is an error.
func (f *Fetcher) FetchBytes(raw string) ([]byte, error) {
	outcome, err := f.Fetch(raw)
	if err != nil {
		return nil, err
	}
	if outcome.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: outcome.StatusCode, Status: outcome.Status}
	}
	return outcome.Body, nil
}

// Download retrieves the resource and writes its body to path,
// inferring the write mode from the content type unless mode
// overrides it. The chosen mode is returned.
func (f *Fetcher) Download(raw, path string, mode bodywriter.Mode) (bodywriter.Mode, error) {
	outcome, err := f.Fetch(raw)
	if err != nil {
		return mode, err
	}
	if outcome.StatusCode != http.StatusOK {
		return mode, &StatusError{StatusCode: outcome.StatusCode, Status: outcome.Status}
	}
	return bodywriter.Write(path, outcome.StatusCode, outcome.ContentType(), outcome.Body, mode)
}

// resolveProxy determines proxy routing for one retrieval sequence.
// The config override wins; otherwise the environment is read once
// here, never again mid-sequence.
func (f *Fetcher) resolveProxy() (target.ProxyConfig, error) {
	if f.proxy != nil {
		return *f.proxy, nil
	}
	return target.ProxyFromEnv()
}

func (f *Fetcher) newClient(proxy target.ProxyConfig) *http.Client {
	transport := &http.Transport{}
	if proxy.IsProxy() {
		transport.Proxy = http.ProxyURL(proxy.URL())
	}
	if f.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		// the loop follows redirects itself
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// issue sends a single GET request for the target, attaching the
// User-Agent and, when enabled, conditional headers from the
// validator store.
func (f *Fetcher) issue(client *http.Client, t target.Target, log zerolog.Logger) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, t.URL().String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	if f.useValidators && f.store != nil {
		entry, ok, err := f.store.Lookup(t.String())
		if err != nil {
			log.Error().Err(err).Msg("Could not look up validators")
		} else if ok {
			if entry.ETag != "" {
				req.Header.Set("If-None-Match", entry.ETag)
			}
			if entry.LastModified != "" {
				req.Header.Set("If-Modified-Since", entry.LastModified)
			}
			log.Trace().Str("etag", entry.ETag).Str("lastModified", entry.LastModified).
				Msg("Attached conditional headers")
		}
	}

	return client.Do(req)
}
