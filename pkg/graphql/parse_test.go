package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	t.Run("json object preserves order", func(t *testing.T) {
		headers, err := ParseHeaders(`{"Authorization": "Bearer abc", "X-Trace": "1"}`)
		require.NoError(t, err)
		require.Len(t, headers, 2)
		assert.Equal(t, Header{Name: "Authorization", Value: "Bearer abc"}, headers[0])
		assert.Equal(t, Header{Name: "X-Trace", Value: "1"}, headers[1])
	})

	t.Run("json object keeps duplicate keys", func(t *testing.T) {
		headers, err := ParseHeaders(`{"X-Tag": "a", "X-Tag": "b"}`)
		require.NoError(t, err)
		require.Len(t, headers, 2)
		assert.Equal(t, "a", headers[0].Value)
		assert.Equal(t, "b", headers[1].Value)
	})

	t.Run("non-string values are stringified", func(t *testing.T) {
		headers, err := ParseHeaders(`{"X-Limit": 10}`)
		require.NoError(t, err)
		require.Len(t, headers, 1)
		assert.Equal(t, "10", headers[0].Value)
	})

	t.Run("key value lines", func(t *testing.T) {
		headers, err := ParseHeaders("Authorization: Bearer abc\n\nX-Trace: 1")
		require.NoError(t, err)
		require.Len(t, headers, 2)
		assert.Equal(t, "Authorization", headers[0].Name)
		assert.Equal(t, "Bearer abc", headers[0].Value)
	})

	t.Run("value containing colon", func(t *testing.T) {
		headers, err := ParseHeaders("Referer: https://example.com/path")
		require.NoError(t, err)
		require.Len(t, headers, 1)
		assert.Equal(t, "https://example.com/path", headers[0].Value)
	})

	t.Run("invalid line", func(t *testing.T) {
		_, err := ParseHeaders("no colon here")
		require.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseHeaders(`{"broken": `)
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		headers, err := ParseHeaders("   \n ")
		require.NoError(t, err)
		assert.Empty(t, headers)
	})
}

func TestParseVariables(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		vars, err := ParseVariables(`{"id": "42", "limit": 5}`)
		require.NoError(t, err)
		assert.Equal(t, "42", vars["id"])
		assert.Equal(t, float64(5), vars["limit"])
	})

	t.Run("empty yields empty object", func(t *testing.T) {
		vars, err := ParseVariables("  ")
		require.NoError(t, err)
		assert.NotNil(t, vars)
		assert.Empty(t, vars)
	})

	t.Run("array rejected", func(t *testing.T) {
		_, err := ParseVariables(`[1, 2]`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JSON object")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseVariables(`{"a": `)
		require.Error(t, err)
	})
}
