package mock

import "net/http/httptest"

type HTTPTestAuthorizationServer struct {
	*AuthorizationService
	Server *httptest.Server
	Issuer string
}

func NewHTTPTestAuthorizationServer(opts ...Option) (*HTTPTestAuthorizationServer, error) {
	service, err := NewAuthorizationService(opts...)
	if err != nil {
		return nil, err
	}
	server := &HTTPTestAuthorizationServer{
		AuthorizationService: service,
	}
	server.Server = httptest.NewServer(service.Handler())
	service.Issuer = server.Server.URL
	server.Issuer = server.Server.URL
	return server, nil
}

// ResourceURL returns the protected resource endpoint.
func (s *HTTPTestAuthorizationServer) ResourceURL() string {
	return s.Issuer + "/resource"
}

func (s *HTTPTestAuthorizationServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
