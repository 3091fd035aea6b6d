package fetchwork

import (
	"io"
	"net/http"

	"github.com/fetchwork/fetchwork/validators"
)

// Outcome is the terminal value of a retrieval sequence: the last
// response the loop saw before stopping. Header keys are canonicalized
// by net/http, so lookup is case-insensitive and values for a name
// keep the order they arrived in.
type Outcome struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	// Target is the canonical form of the address the terminal
	// response came from, after any redirects. It is the key to use
	// when storing validators for this resource.
	Target string
}

func newOutcome(res *http.Response) (*Outcome, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Header:     res.Header,
		Body:       body,
	}, nil
}

// ContentType returns the Content-Type header value.
func (o *Outcome) ContentType() string {
	return o.Header.Get("Content-Type")
}

// Validators extracts the cache validators carried by the response.
// The result is zero when the response carries neither an ETag nor a
// Last-Modified header. Callers that keep a validator store upsert
// this after a successful fetch; the fetcher itself never writes to
// the store.
func (o *Outcome) Validators() validators.Entry {
	return validators.Entry{
		ETag:         o.Header.Get("ETag"),
		LastModified: o.Header.Get("Last-Modified"),
	}
}
