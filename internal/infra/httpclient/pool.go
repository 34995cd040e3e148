package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused by every outbound client (generation, embedding,
// chroma) so calls to the same host share keep-alive connections.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client on top of the shared transport.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}

// Transport exposes the shared transport for clients that only accept a RoundTripper.
func Transport() http.RoundTripper {
	return sharedTransport
}
