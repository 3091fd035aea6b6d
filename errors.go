package fetchwork

import "fmt"

// InvalidReferenceError reports a target string that could not be
// resolved to an absolute http(s) address.
type InvalidReferenceError struct {
	Raw string
	Err error
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid target %q: %v", e.Raw, e.Err)
}

func (e *InvalidReferenceError) Unwrap() error {
	return e.Err
}

// RedirectLoopError reports an exhausted redirect budget.
type RedirectLoopError struct {
	Budget   int
	Location string
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("redirect budget of %d exhausted at %s", e.Budget, e.Location)
}

// StatusError reports a terminal response outside the success set.
// It carries the status code and message so callers can distinguish
// expected not-found-class outcomes from transport failures.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// TransportError reports a connection, TLS or timeout failure from
// the network layer. It is never retried and never wrapped with
// redirect-loop semantics.
type TransportError struct {
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
