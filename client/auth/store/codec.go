package store

import (
	"encoding/base64"
)

// DefaultObfuscationKey is the XOR key used when none is configured.
const DefaultObfuscationKey = "storefront-session"

// Codec transforms values on their way to and from Storage.
type Codec interface {
	Encode(value string) string
	// Decode reverses Encode; ok is false when value is not a valid encoding.
	Decode(value string) (decoded string, ok bool)
}

type xorCodec struct {
	key []byte
}

// NewXORCodec returns a Codec that XORs values with key and base64 encodes the result.
func NewXORCodec(key string) Codec {
	if key == "" {
		key = DefaultObfuscationKey
	}
	return &xorCodec{key: []byte(key)}
}

func (c *xorCodec) Encode(value string) string {
	return base64.StdEncoding.EncodeToString(c.xor([]byte(value)))
}

func (c *xorCodec) Decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}
	return string(c.xor(data)), true
}

func (c *xorCodec) xor(data []byte) []byte {
	ret := make([]byte, len(data))
	for i, b := range data {
		ret[i] = b ^ c.key[i%len(c.key)]
	}
	return ret
}
