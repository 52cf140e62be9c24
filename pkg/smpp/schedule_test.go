package smpp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleTimeRelative(t *testing.T) {
	now := testEpoch

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"000000000000000R", 0},
		{"000000000010000R", 10 * time.Second},
		{"000001020304000R", 26*time.Hour + 3*time.Minute + 4*time.Second},
		{"010100000000000R", 395 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.value, now)
			require.NoError(t, err)
			assert.Equal(t, now.Add(tt.want), got)
		})
	}
}

func TestParseScheduleTimeAbsolute(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"240315143000008+", time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)},
		{"240315143000504-", time.Date(2024, 3, 15, 15, 30, 0, 500*int(time.Millisecond), time.UTC)},
		{"241231235959900+", time.Date(2024, 12, 31, 23, 59, 59, 900*int(time.Millisecond), time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.value, testEpoch)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseScheduleTimeInvalid(t *testing.T) {
	for _, value := range []string{
		"24031514300000+",   // too short
		"2403151430000008+", // too long
		"240315143000008X",  // unknown marker
		"2403151430a0008+",  // non-digit
		"240230120000000+",  // February 30th
		"241315120000000+",  // month 13
		"240315250000000+",  // hour 25
		"-00000000010000R",  // sign in a numeric field
	} {
		t.Run(value, func(t *testing.T) {
			_, err := ParseScheduleTime(value, testEpoch)
			assert.ErrorIs(t, err, ErrInvalidScheduleTime)
		})
	}
}

func TestFormatAbsoluteTimeParsesBack(t *testing.T) {
	in := time.Date(2024, 3, 15, 14, 30, 0, 500*int(time.Millisecond), time.FixedZone("", 3600))

	s := FormatAbsoluteTime(in)
	assert.Equal(t, "240315143000504+", s)

	out, err := ParseScheduleTime(s, testEpoch)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	west := time.Date(2024, 3, 15, 9, 0, 0, 0, time.FixedZone("", -5*3600))
	assert.Equal(t, "240315090000020-", FormatAbsoluteTime(west))
}

func TestFormatRelativeTime(t *testing.T) {
	assert.Equal(t, "000001020304000R", FormatRelativeTime(26*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "000000000000000R", FormatRelativeTime(-time.Second))
}
