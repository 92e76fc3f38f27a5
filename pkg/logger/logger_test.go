package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvey11/codescape-financial-api/pkg/config"
)

func jsonConfig(level string) *config.Config {
	return &config.Config{Env: "test", LogLevel: level, LogFormat: "json"}
}

// lastEntry decodes the last JSON line written to buf
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines[len(lines)-1], "no log output")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"panic":   zerolog.PanicLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for input, want := range tests {
		assert.Equal(t, want, parseLogLevel(input), "input %q", input)
	}
}

func TestNewWithWriter_LevelAndEnv(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(jsonConfig("warn"), &buf)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info("suppressed")
	assert.Empty(t, buf.String(), "info is below warn")

	log.Warn("kept")
	entry := lastEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "test", entry["env"])
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(jsonConfig("debug"), &buf)

	tests := []struct {
		level string
		emit  func(string)
	}{
		{"debug", log.Debug},
		{"info", log.Info},
		{"warn", log.Warn},
		{"error", log.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.emit(tt.level + " message")

			entry := lastEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.level+" message", entry["message"])
		})
	}
}

func TestWithPair(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(jsonConfig("info"), &buf)

	log.WithPair("DE0007164600", "XETRA").WithField("quotes", 3).Info("Quotes ingested")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "DE0007164600", entry["isin"])
	assert.Equal(t, "XETRA", entry["exchange"])
	assert.Equal(t, float64(3), entry["quotes"])
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(jsonConfig("info"), &buf)

	log.WithError(errors.New("connection refused")).WithFields(map[string]interface{}{
		"store":   "postgres",
		"workers": 4,
	}).Error("Failed to open store")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "postgres", entry["store"])
	assert.Equal(t, float64(4), entry["workers"])
	assert.Equal(t, "Failed to open store", entry["message"])
}

func TestWithFieldDoesNotModifyParent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(jsonConfig("info"), &buf)

	_ = log.WithField("module", "ingest")
	log.Info("plain")

	assert.NotContains(t, lastEntry(t, &buf), "module")
}

func TestConsoleFormats(t *testing.T) {
	for _, format := range []string{"console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: format}, &buf)
			log.Info("server started")

			assert.Contains(t, buf.String(), "server started")
			assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
		})
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithPair("DE0007164600", "XETRA").WithError(errors.New("x")).Error("discarded")
	})
}
