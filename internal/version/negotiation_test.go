package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportsTransceiver(t *testing.T) {
	assert.False(t, SMPPVersion(0x00).SupportsTransceiver())
	assert.False(t, SMPPVersion33.SupportsTransceiver())
	assert.True(t, SMPPVersion34.SupportsTransceiver())
	assert.True(t, SMPPVersion(0x50).SupportsTransceiver())
}

func TestMessageIDLength(t *testing.T) {
	assert.Equal(t, 8, SMPPVersion33.MessageIDLength())
	assert.Equal(t, 16, SMPPVersion34.MessageIDLength())
}

func TestString(t *testing.T) {
	assert.Equal(t, "3.3", SMPPVersion33.String())
	assert.Equal(t, "3.4", SMPPVersion34.String())
	assert.Equal(t, "3.4+ (50)", SMPPVersion(0x50).String())
	assert.Equal(t, "legacy (00)", SMPPVersion(0).String())
}

func TestSupportsFeature(t *testing.T) {
	assert.True(t, SMPPVersion33.SupportsFeature("enquire_link"))
	assert.False(t, SMPPVersion33.SupportsFeature("tlv"))
	assert.True(t, SMPPVersion34.SupportsFeature("tlv"))
	assert.False(t, SMPPVersion34.SupportsFeature("no_such_feature"))
}
