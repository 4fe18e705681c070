package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := parseLevel("loud")
	assert.False(t, ok)
	_, ok = parseLevel("")
	assert.False(t, ok)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	assert.Equal(t, Config{Level: zerolog.ErrorLevel, Timestamp: false, NoColor: true}, cfg)
}

func TestNewBypassDiscards(t *testing.T) {
	var out bytes.Buffer
	logger := New(Config{Level: zerolog.DebugLevel, Bypass: true}, &out)
	logger.Info().Msg("dropped")
	assert.Zero(t, out.Len())
}

func TestNewRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	logger := New(Config{Level: zerolog.WarnLevel, NoColor: true}, &out)
	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	assert.NotContains(t, out.String(), "quiet")
	assert.Contains(t, out.String(), "loud")
}

func TestInfoWriterEmitsPerLine(t *testing.T) {
	var out bytes.Buffer
	w := NewInfoWriter(zerolog.New(&out))

	n, err := w.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	_, err = w.Write([]byte("half\r\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("tail"))
	require.NoError(t, err)
	w.Flush()

	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, "info", ev["level"])
		msgs = append(msgs, ev["message"].(string))
	}
	assert.Equal(t, []string{"first line", "second half", "tail"}, msgs)
}
