// Package transport executes single GraphQL request/response exchanges
// over HTTP and normalizes timing and transport-level failures.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/logging"
)

// DefaultTimeout bounds an exchange when the caller's context carries
// no deadline.
const DefaultTimeout = 20 * time.Second

// Client executes GraphQL operations over HTTP POST.
type Client struct {
	// HTTPClient serves verified requests. A zero value uses
	// http.DefaultClient.
	HTTPClient *http.Client
	// Timeout applies when the context has no deadline. Zero means
	// DefaultTimeout.
	Timeout time.Duration
	// Logger receives debug logs. Nil disables logging.
	Logger *slog.Logger
}

// New returns a Client with default settings.
func New() *Client {
	return &Client{}
}

// Execute performs one request/response exchange. Transport-level
// failures (DNS, connect, TLS, timeout) land in the result's
// TransportErr; HTTP error statuses pass through as normal results. The
// returned error is non-nil only for a structurally invalid spec.
func (c *Client) Execute(ctx context.Context, spec *graphql.RequestSpec) (*graphql.RequestResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	variables := spec.Variables
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(graphql.Request{Query: spec.Query, Variables: variables})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	for _, h := range spec.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient, cleanup := c.clientFor(spec.VerifyTLS)
	if cleanup != nil {
		defer cleanup()
	}

	logger.Debug("executing request", "endpoint", spec.Endpoint, "verifyTLS", spec.VerifyTLS)

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return &graphql.RequestResult{
			Elapsed:      time.Since(start),
			TransportErr: classifyTransportError(err),
		}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return &graphql.RequestResult{
			Elapsed:      elapsed,
			TransportErr: classifyTransportError(err),
		}, nil
	}

	result := &graphql.RequestResult{
		Status:  resp.StatusCode,
		Elapsed: elapsed,
		BodyRaw: string(raw),
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		result.BodyParsed = parsed
	}

	logger.Debug("request complete", "status", result.Status, "elapsed", elapsed)
	return result, nil
}

// clientFor returns the client to use for one call. Disabling TLS
// verification builds a throwaway transport so the relaxed trust
// setting cannot leak into other requests.
func (c *Client) clientFor(verifyTLS bool) (*http.Client, func()) {
	if verifyTLS {
		if c.HTTPClient != nil {
			return c.HTTPClient, nil
		}
		return http.DefaultClient, nil
	}

	insecure := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // requested for this single call
	}
	client := &http.Client{Transport: insecure}
	return client, insecure.CloseIdleConnections
}

// classifyTransportError maps a network-level failure to the
// transport error kind, flagging timeouts.
func classifyTransportError(err error) *graphql.Error {
	terr := &graphql.Error{
		Kind:    graphql.KindTransport,
		Message: "request failed",
		Err:     err,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		terr.Message = "request timed out"
		terr.Timeout = true
		return terr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		terr.Message = "request timed out"
		terr.Timeout = true
		return terr
	}
	if errors.Is(err, context.Canceled) {
		terr.Message = "request cancelled"
		return terr
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		terr.Message = "TLS certificate verification failed"
		return terr
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		terr.Message = "DNS lookup failed"
		return terr
	}
	return terr
}
