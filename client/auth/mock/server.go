package mock

import (
	"net/http/httptest"
)

// HTTPTestServer is a Service listening on a local httptest server.
type HTTPTestServer struct {
	*Service
	Server *httptest.Server
	URL    string
}

// NewHTTPTestServer starts a mock storefront API
func NewHTTPTestServer(opts ...Option) (*HTTPTestServer, error) {
	service, err := NewService(opts...)
	if err != nil {
		return nil, err
	}
	server := &HTTPTestServer{Service: service}
	server.Server = httptest.NewServer(service.Handler())
	server.URL = server.Server.URL
	return server, nil
}

func (s *HTTPTestServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
