package graphql

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Header is a single name/value pair. Order is preserved and duplicate
// names are allowed; pairs are transmitted as given.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// RequestSpec describes one GraphQL operation to execute. It is treated
// as immutable once submitted.
type RequestSpec struct {
	// Endpoint is the http(s) URL of the GraphQL server.
	Endpoint string
	// Headers are attached to the request verbatim.
	Headers []Header
	// Query is the operation text (query, mutation, or subscription).
	Query string
	// Variables is an arbitrary JSON value; nil means no variables.
	Variables any
	// VerifyTLS disables certificate verification for this call only
	// when false. It never affects other requests.
	VerifyTLS bool
}

// Validate rejects a structurally invalid spec before any I/O happens.
func (s *RequestSpec) Validate() error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "":
		return fmt.Errorf("unsupported URL scheme: missing")
	default:
		return fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in URL")
	}
	return nil
}

// RequestResult is the normalized outcome of one request/response
// exchange. Exactly one of Status/BodyRaw or TransportErr is populated:
// HTTP-level error statuses (4xx/5xx) pass through as normal results
// because GraphQL servers commonly carry errors inside the body.
type RequestResult struct {
	// Status is the HTTP status code, or 0 when the request never
	// produced a response.
	Status int
	// Elapsed is the wall time from send to full body receipt,
	// including the TLS handshake.
	Elapsed time.Duration
	// BodyRaw is the exact body received.
	BodyRaw string
	// BodyParsed is the decoded JSON body, or nil when the body is not
	// valid JSON. A non-JSON body is not an error.
	BodyParsed any
	// TransportErr is set on network-level failure, with no Status.
	TransportErr *Error
}

// Decode interprets the result body as a GraphQL response. It fails
// when the exchange failed at the transport level or the body is not a
// JSON object.
func (r *RequestResult) Decode() (*Response, error) {
	if r.TransportErr != nil {
		return nil, r.TransportErr
	}
	var resp Response
	if err := json.Unmarshal([]byte(r.BodyRaw), &resp); err != nil {
		return nil, fmt.Errorf("response body is not a GraphQL response: %w", err)
	}
	return &resp, nil
}
