package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXORCodec(t *testing.T) {
	testCases := []struct {
		description string
		key         string
		value       string
	}{
		{description: "default key", value: "eyJhbGciOiJIUzI1NiJ9.payload.sig"},
		{description: "custom key", key: "k", value: `{"id":"u1"}`},
		{description: "unicode", key: "ключ", value: "Zoë ☕"},
	}
	for _, testCase := range testCases {
		codec := NewXORCodec(testCase.key)
		encoded := codec.Encode(testCase.value)
		assert.NotEqual(t, testCase.value, encoded, testCase.description)
		decoded, ok := codec.Decode(encoded)
		assert.True(t, ok, testCase.description)
		assert.Equal(t, testCase.value, decoded, testCase.description)
	}
}

func TestXORCodec_DecodeInvalid(t *testing.T) {
	codec := NewXORCodec("")
	_, ok := codec.Decode("")
	assert.False(t, ok)
	_, ok = codec.Decode("*not base64*")
	assert.False(t, ok)
}
