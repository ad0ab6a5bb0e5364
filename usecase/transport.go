package usecase

import (
	"fmt"
	"net/http"

	"github.com/classtream/lectures-client/metrics"
)

// AuthTransport attaches a freshly issued credential to every outbound
// request. With no active session the request is sent unauthenticated; the
// server decides whether that is acceptable. The transport performs no
// retries and no status-code interpretation, and forwards transport
// failures untouched.
type AuthTransport struct {
	Credentials *CredentialProvider
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, err := t.Credentials.Credential(req.Context())
	if err != nil {
		return nil, fmt.Errorf("credential fetch for %s %s: %w", req.Method, req.URL.Path, err)
	}

	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())
	if cred != nil {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
		metrics.OutboundRequests.WithLabelValues("authenticated").Inc()
	} else {
		metrics.OutboundRequests.WithLabelValues("anonymous").Inc()
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewSecureClient returns an http.Client whose every request carries a
// fresh credential when a session is active.
func NewSecureClient(creds *CredentialProvider) *http.Client {
	return &http.Client{Transport: &AuthTransport{Credentials: creds}}
}
