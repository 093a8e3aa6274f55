package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSpecValidate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  string
	}{
		{name: "valid https", endpoint: "https://api.example.com/graphql"},
		{name: "valid http", endpoint: "http://localhost:8080/graphql"},
		{name: "empty", endpoint: "", wantErr: "endpoint is required"},
		{name: "whitespace only", endpoint: "   ", wantErr: "endpoint is required"},
		{name: "bad scheme", endpoint: "ftp://example.com/graphql", wantErr: "unsupported URL scheme: ftp"},
		{name: "no scheme", endpoint: "example.com/graphql", wantErr: "unsupported URL scheme"},
		{name: "no host", endpoint: "http://", wantErr: "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &RequestSpec{Endpoint: tt.endpoint, Query: "{ ok }"}
			err := spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRequestResultDecode(t *testing.T) {
	t.Run("graphql response", func(t *testing.T) {
		result := &RequestResult{
			Status:  200,
			BodyRaw: `{"data":{"viewer":{"login":"octocat"}},"errors":[{"message":"partial failure"}]}`,
		}
		resp, err := result.Decode()
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "partial failure", resp.Errors[0].Message)
		assert.NotNil(t, resp.Data)
	})

	t.Run("transport failure", func(t *testing.T) {
		result := &RequestResult{
			TransportErr: NewError(KindTransport, "connection refused", nil),
		}
		_, err := result.Decode()
		require.Error(t, err)
	})

	t.Run("non-json body", func(t *testing.T) {
		result := &RequestResult{Status: 502, BodyRaw: "Bad Gateway"}
		_, err := result.Decode()
		require.Error(t, err)
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := NewError(KindPersistence, "write failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "persistence")
	assert.Contains(t, err.Error(), "write failed")
}
