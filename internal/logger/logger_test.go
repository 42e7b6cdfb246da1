package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	orig := log.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = orig
		zerolog.SetGlobalLevel(origLevel)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLevel(tc.in))
		})
	}
}

func TestInit_JSON(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	Init("info", "json", &buf)

	log.Info().Int64("units", 5).Msg("job finished")
	log.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "job finished", line["message"])
	assert.Equal(t, float64(5), line["units"])
	assert.Contains(t, line, "time")
}

func TestInit_Text(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	Init("debug", "text", &buf)

	log.Debug().Str("job", "a.meter").Msg("job started")
	out := buf.String()
	assert.Contains(t, out, "job started")
	assert.Contains(t, out, "job=a.meter")
}
