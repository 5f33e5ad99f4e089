package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/goliatone/go-fklookup/pkg/transport"
)

// FakeClient is a scripted transport.Client. Responses are keyed by the exact
// URL the widget requests. Unknown URLs answer 404.
type FakeClient struct {
	mu       sync.Mutex
	json     map[string]any
	html     map[string]string
	errs     map[string]error
	gates    map[string]chan struct{}
	requests []string
}

var _ transport.Client = (*FakeClient)(nil)

// NewFakeClient returns an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		json:  make(map[string]any),
		html:  make(map[string]string),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

// JSON answers url with body encoded as JSON.
func (f *FakeClient) JSON(url string, body any) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json[url] = body
	return f
}

// HTML answers url with body.
func (f *FakeClient) HTML(url, body string) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html[url] = body
	return f
}

// Fail makes requests to url return err.
func (f *FakeClient) Fail(url string, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
	return f
}

// Hold blocks requests to url until release is called or the request context
// ends. release may be called more than once.
func (f *FakeClient) Hold(url string) (release func()) {
	gate := make(chan struct{})
	var once sync.Once

	f.mu.Lock()
	f.gates[url] = gate
	f.mu.Unlock()

	return func() {
		once.Do(func() { close(gate) })
	}
}

// Requests returns the URLs requested so far, in order.
func (f *FakeClient) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// GetJSON implements transport.Client.
func (f *FakeClient) GetJSON(ctx context.Context, url string, out any) error {
	if err := f.wait(ctx, url); err != nil {
		return err
	}

	f.mu.Lock()
	body, ok := f.json[url]
	failure := f.errs[url]
	f.mu.Unlock()

	if failure != nil {
		return failure
	}
	if !ok {
		return &transport.StatusError{URL: url, Code: http.StatusNotFound}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("testsupport: encode response: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("testsupport: decode response: %w", err)
	}
	return nil
}

// GetHTML implements transport.Client.
func (f *FakeClient) GetHTML(ctx context.Context, url string) (string, error) {
	if err := f.wait(ctx, url); err != nil {
		return "", err
	}

	f.mu.Lock()
	body, ok := f.html[url]
	failure := f.errs[url]
	f.mu.Unlock()

	if failure != nil {
		return "", failure
	}
	if !ok {
		return "", fmt.Errorf("testsupport: no html scripted for %s", url)
	}
	return body, nil
}

func (f *FakeClient) wait(ctx context.Context, url string) error {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	gate := f.gates[url]
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("testsupport: request to %s: %w", url, ctx.Err())
	}
}
