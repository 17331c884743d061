package transport

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIDHeader    = "X-Request-Id"
	defaultContentType = "application/json"
)

// readBody buffers the request body so the request can be replayed.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// prepare clones r for one attempt, attaching token when present.
func prepare(r *http.Request, body []byte, token string) *http.Request {
	cloned := r.Clone(r.Context())
	if body != nil {
		cloned.Body = io.NopCloser(bytes.NewReader(body))
		cloned.ContentLength = int64(len(body))
		cloned.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	if cloned.Header.Get("Content-Type") == "" {
		cloned.Header.Set("Content-Type", defaultContentType)
	}
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}
	if cloned.Header.Get(RequestIDHeader) == "" {
		cloned.Header.Set(RequestIDHeader, uuid.New().String())
	}
	return cloned
}

// discard drains and closes a response body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
