package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Options mirror the subset of fetch options the storefront wrappers use.
type Options struct {
	Method  string
	Headers map[string]string
	Body    io.Reader
	// JSON, when set, is marshalled as the request body and takes precedence over Body.
	JSON interface{}
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Requester issues authenticated API calls relative to a base URL.
type Requester struct {
	BaseURL string
	client  *http.Client
}

// NewRequester creates a Requester sending through roundTripper.
func NewRequester(baseURL string, roundTripper http.RoundTripper) *Requester {
	return &Requester{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: roundTripper},
	}
}

func (r *Requester) Client() *http.Client {
	return r.client
}

// Request sends an authenticated request; URL may be absolute or relative to BaseURL.
func (r *Requester) Request(ctx context.Context, URL string, options *Options) (*http.Response, error) {
	if options == nil {
		options = &Options{}
	}
	method := options.Method
	if method == "" {
		method = http.MethodGet
	}
	body := options.Body
	if options.JSON != nil {
		data, err := json.Marshal(options.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.resolve(URL), body)
	if err != nil {
		return nil, err
	}
	for k, v := range options.Headers {
		req.Header.Set(k, v)
	}
	return r.client.Do(req)
}

// Do sends in as JSON (when non nil) and decodes a 2xx response into out (when non nil).
func (r *Requester) Do(ctx context.Context, method, URL string, in, out interface{}) error {
	resp, err := r.Request(ctx, URL, &Options{Method: method, JSON: in})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %v: %w", URL, err)
	}
	return nil
}

func (r *Requester) resolve(URL string) string {
	if strings.HasPrefix(URL, "http://") || strings.HasPrefix(URL, "https://") {
		return URL
	}
	if !strings.HasPrefix(URL, "/") {
		URL = "/" + URL
	}
	return r.BaseURL + URL
}
