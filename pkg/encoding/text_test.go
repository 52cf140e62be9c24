package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGSM7Bit(t *testing.T) {
	e := NewTextEncoder()

	data := e.EncodeGSM7Bit("Hi @ {€}")
	assert.Equal(t, []byte{0x48, 0x69, 0x20, 0x00, 0x20, 0x1B, 0x28, 0x1B, 0x65, 0x1B, 0x29}, data)
	assert.Equal(t, "Hi @ {€}", e.DecodeGSM7Bit(data))

	assert.Equal(t, []byte{0x3F}, e.EncodeGSM7Bit("☃"))
}

func TestEncodeDecode(t *testing.T) {
	e := NewTextEncoder()

	tests := []struct {
		name   string
		coding uint8
		text   string
		wire   []byte
	}{
		{"ia5", CodingIA5, "hello", []byte("hello")},
		{"latin1", CodingLatin1, "café", []byte{'c', 'a', 'f', 0xE9}},
		{"cyrillic", CodingCyrillic, "Да", []byte{0xB4, 0xD0}},
		{"ucs2", CodingUCS2, "hé", []byte{0x00, 0x68, 0x00, 0xE9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := e.Encode(tt.text, tt.coding)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, wire)

			text, err := e.Decode(wire, tt.coding)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestUnsupportedCoding(t *testing.T) {
	e := NewTextEncoder()

	_, err := e.Encode("x", 0x05)
	assert.Error(t, err)
	_, err = e.Decode([]byte("x"), 0x05)
	assert.Error(t, err)
}

func TestPrefix(t *testing.T) {
	e := NewTextEncoder()

	assert.Equal(t, "hello", e.Prefix([]byte("hello world"), CodingIA5, 5))
	assert.Equal(t, "short", e.Prefix([]byte("short"), CodingIA5, 20))
	assert.Equal(t, "hé", e.Prefix([]byte{0x00, 0x68, 0x00, 0xE9, 0x00, 0x21}, CodingUCS2, 2))

	// undecodable payloads fall back to their raw bytes
	assert.Equal(t, "raw", e.Prefix([]byte("raw"), 0x05, 20))
}
