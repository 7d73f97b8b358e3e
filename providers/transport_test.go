package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/open-rails/oauthkit/core"
)

// fakeTransport routes provider calls to in-test handlers and records
// every call, so tests can assert on call counts and request bodies
// without a listening server.
type fakeTransport struct {
	mu    sync.Mutex
	gets  []string
	posts []postCall

	onGet  func(rawURL string, header http.Header) (*core.Response, error)
	onPost func(rawURL string, form url.Values) (*core.Response, error)
}

type postCall struct {
	url  string
	form url.Values
}

func (f *fakeTransport) Get(_ context.Context, rawURL string, header http.Header) (*core.Response, error) {
	f.mu.Lock()
	f.gets = append(f.gets, rawURL)
	f.mu.Unlock()
	if f.onGet == nil {
		return &core.Response{Status: http.StatusNotFound}, nil
	}
	return f.onGet(rawURL, header)
}

func (f *fakeTransport) PostForm(_ context.Context, rawURL string, form url.Values, _ http.Header) (*core.Response, error) {
	f.mu.Lock()
	f.posts = append(f.posts, postCall{url: rawURL, form: form})
	f.mu.Unlock()
	if f.onPost == nil {
		return &core.Response{Status: http.StatusNotFound}, nil
	}
	return f.onPost(rawURL, form)
}

func (f *fakeTransport) getCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.gets {
		if u == rawURL {
			n++
		}
	}
	return n
}

func jsonResp(t *testing.T, status int, v any) *core.Response {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &core.Response{Status: status, Body: b}
}

// errTransport fails every call, simulating network loss.
type errTransport struct{}

func (errTransport) Get(context.Context, string, http.Header) (*core.Response, error) {
	return nil, fmt.Errorf("dial tcp: connection refused")
}

func (errTransport) PostForm(context.Context, string, url.Values, http.Header) (*core.Response, error) {
	return nil, fmt.Errorf("dial tcp: connection refused")
}
