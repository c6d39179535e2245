package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version returns the release version embedded in the binary.
func Version() string {
	return strings.TrimSpace(version)
}

// UserAgent is sent on every outbound request made through HTTPClient.
func UserAgent() string {
	return "Solarcast/" + Version()
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper and sets the User-Agent and Accept
// headers on a clone of the request.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client with the solarcast user-agent set. A zero
// timeout means the client never times out.
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: UserAgent(),
		},
		Timeout: timeout,
	}
}
