package blacklist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// FetchErrorKind classifies a failed source fetch.
type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchHTTPStatus
	FetchTimeout
)

// FetchError is a typed failure from one source fetch. Callers must not
// assume any partial payload is usable.
type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("fetch failed: HTTP %d", e.Status)
	case FetchTimeout:
		return fmt.Sprintf("fetch timed out: %v", e.Err)
	default:
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the refresh orchestrator may retry this failure.
// Status failures are not retried: the payload reached us and the server
// said no.
func (e *FetchError) Retryable() bool {
	return e.Kind == FetchNetwork || e.Kind == FetchTimeout
}

// Fetcher retrieves raw source payloads. It does one outbound GET per call
// and never retries; retry policy belongs to the Refresher.
type Fetcher struct {
	http *http.Client
}

// NewFetcher builds a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}}
}

// Fetch retrieves the full payload at the endpoint or a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTPStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), Err: err}
	}
	return body, nil
}

func classifyTransportError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchTimeout
	}
	return FetchNetwork
}
