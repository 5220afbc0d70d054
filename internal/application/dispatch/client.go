package dispatch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a partner response is read, so a
// misbehaving endpoint cannot exhaust worker memory
const maxResponseBytes = 1 << 20

// HTTPDoer is the outbound transport used for pre-ping and main dispatch.
// *http.Client satisfies it; tests substitute a stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient builds the outbound client used against partner
// endpoints. Redirects are not followed: the raw first response is what
// success patterns match against.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// send issues the rendered request and captures the raw response text.
// Non-2xx statuses are not errors here; the body text is what matters.
func send(ctx context.Context, client HTTPDoer, spec *RequestSpec) (string, int, error) {
	var body io.Reader
	if spec.Body != "" {
		body = strings.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return "", 0, err
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(raw), resp.StatusCode, nil
}
