package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds every outbound call when the caller's
// context carries no earlier deadline.
const DefaultHTTPTimeout = 10 * time.Second

// Response is what a Transport hands back for any outcome that reached
// the upstream. Non-2xx statuses are not transport errors; providers
// classify them.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// JSON decodes the body.
func (r *Response) JSON(v any) error { return json.Unmarshal(r.Body, v) }

// Transport issues the HTTP calls a provider needs. It is injected, not
// owned: the engine is agnostic to the concrete client, which keeps
// provider logic testable and lets deployments bring their own
// instrumentation. Transport errors (DNS, timeout, cancellation) are
// transient and caller-retryable; the engine never retries internally.
type Transport interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*Response, error)
	PostForm(ctx context.Context, rawURL string, form url.Values, header http.Header) (*Response, error)
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport with the given per-call timeout;
// zero means DefaultHTTPTimeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	applyHeader(req, header)
	return t.do(req)
}

func (t *HTTPTransport) PostForm(ctx context.Context, rawURL string, form url.Values, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	applyHeader(req, header)
	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

func applyHeader(req *http.Request, header http.Header) {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
}

// BearerHeader is a convenience for authenticated API calls.
func BearerHeader(accessToken string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+accessToken)
	return h
}
