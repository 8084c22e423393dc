package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     []byte
		wantMIME string
	}{
		{"plain", "AQID", []byte{1, 2, 3}, ""},
		{"data uri", "data:image/png;base64,AQID", []byte{1, 2, 3}, "image/png"},
		{"wrapped lines", "AQ\nID\n", []byte{1, 2, 3}, ""},
		{"unpadded", "AQI", []byte{1, 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mime, err := DecodeBase64MaybeDataURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}

	_, _, err := DecodeBase64MaybeDataURL("%%%")
	assert.Error(t, err)
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "image/webp", PickMIME(" image/webp ", "image/png", nil))
	assert.Equal(t, "image/png", PickMIME("", "image/png", nil))
	assert.Equal(t, "image/png", PickMIME("", "", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	// "健" is three bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "…", Truncate("健康", 2))
}

func TestStrictSchema(t *testing.T) {
	raw, err := StrictSchema(`{"type":"object","properties":{"a":{"type":"object","properties":{"b":{"type":"string"}}},"c":{"type":"array","items":{"type":"string"}}}}`)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.ElementsMatch(t, []any{"a", "c"}, m["required"])
	assert.Equal(t, false, m["additionalProperties"])
	inner := m["properties"].(map[string]any)["a"].(map[string]any)
	assert.Equal(t, []any{"b"}, inner["required"])
}

func TestStrictSchema_StableRequiredOrder(t *testing.T) {
	const schema = `{"type":"object","properties":{"f":{},"b":{},"e":{},"a":{},"d":{},"c":{}}}`
	first, err := StrictSchema(schema)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(first, &m))
	assert.Equal(t, []any{"a", "b", "c", "d", "e", "f"}, m["required"])

	for range 50 {
		again, err := StrictSchema(schema)
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
		assert.Equal(t, string(first), string(again))
	}
}
