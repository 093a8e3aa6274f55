package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

func TestExecute_JSONResponse(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"viewer":{"login":"octocat"}}}`))
	}))
	defer ts.Close()

	client := New()
	result, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint:  ts.URL,
		Query:     `query { viewer { login } }`,
		Variables: map[string]any{"first": 10},
		VerifyTLS: true,
	})
	require.NoError(t, err)
	require.Nil(t, result.TransportErr)

	assert.Equal(t, 200, result.Status)
	assert.NotNil(t, result.BodyParsed)
	assert.Greater(t, result.Elapsed, time.Duration(0))
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"query":"query { viewer { login } }","variables":{"first":10}}`, string(gotBody))
}

func TestExecute_NonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	client := New()
	result, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)
	require.Nil(t, result.TransportErr)

	// Error statuses pass through; a non-JSON body is not an error.
	assert.Equal(t, 502, result.Status)
	assert.Equal(t, "upstream exploded", result.BodyRaw)
	assert.Nil(t, result.BodyParsed)
}

func TestExecute_HeadersVerbatim(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := New()
	_, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL,
		Query:    "{ ok }",
		Headers: []graphql.Header{
			{Name: "X-Tag", Value: "a"},
			{Name: "X-Tag", Value: "b"},
			{Name: "Content-Type", Value: "application/graphql-response+json"},
		},
		VerifyTLS: true,
	})
	require.NoError(t, err)

	// Duplicate names arrive in order; a caller-supplied content type
	// is not overwritten.
	assert.Equal(t, []string{"a", "b"}, got.Values("X-Tag"))
	assert.Equal(t, "application/graphql-response+json", got.Get("Content-Type"))
}

func TestExecute_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	client := &Client{Timeout: 50 * time.Millisecond}
	result, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)

	require.NotNil(t, result.TransportErr)
	assert.Equal(t, graphql.KindTransport, result.TransportErr.Kind)
	assert.True(t, result.TransportErr.Timeout)
	assert.Zero(t, result.Status)
}

func TestExecute_ConnectionRefused(t *testing.T) {
	client := New()
	result, err := client.Execute(context.Background(), &graphql.RequestSpec{
		// Port 1 is essentially never listening.
		Endpoint: "http://127.0.0.1:1/graphql", Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)

	require.NotNil(t, result.TransportErr)
	assert.Equal(t, graphql.KindTransport, result.TransportErr.Kind)
	assert.Zero(t, result.Status)
}

func TestExecute_TLSVerification(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))
	defer ts.Close()

	client := New()

	// The self-signed test certificate fails verification by default.
	verified, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)
	require.NotNil(t, verified.TransportErr)

	// Disabling verification for this call succeeds.
	insecure, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: false,
	})
	require.NoError(t, err)
	require.Nil(t, insecure.TransportErr)
	assert.Equal(t, 200, insecure.Status)

	// The relaxed setting did not leak into subsequent verified calls.
	again, err := client.Execute(context.Background(), &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)
	require.NotNil(t, again.TransportErr)
}

func TestExecute_InvalidSpec(t *testing.T) {
	client := New()
	_, err := client.Execute(context.Background(), &graphql.RequestSpec{Endpoint: ""})
	require.Error(t, err)

	_, err = client.Execute(context.Background(), &graphql.RequestSpec{Endpoint: "ftp://example.com"})
	require.Error(t, err)
}

func TestExecute_Cancellation(t *testing.T) {
	started := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := New()
	result, err := client.Execute(ctx, &graphql.RequestSpec{
		Endpoint: ts.URL, Query: "{ ok }", VerifyTLS: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.TransportErr)
	assert.False(t, result.TransportErr.Timeout)
}
