package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
		slog.SetDefault(originalLogger)
	}()

	testCases := []struct {
		name      string
		level     LogLevel
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{
			name:      "Debug level",
			level:     LevelDebug,
			wantDebug: true,
			wantInfo:  true,
			wantWarn:  true,
		},
		{
			name:     "Info level",
			level:    LevelInfo,
			wantInfo: true,
			wantWarn: true,
		},
		{
			name:     "Warn level",
			level:    LevelWarn,
			wantWarn: true,
		},
		{
			name:  "Error level",
			level: LevelError,
		},
		{
			name:     "Invalid level defaults to Info",
			level:    LogLevel("verbose"),
			wantInfo: true,
			wantWarn: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLogger(&buf, tc.level)

			Debug("debug message")
			Info("info message", "tag", "v1.0.0")
			Warn("warn message")
			Error("error message")

			output := buf.String()
			assert.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))
			assert.Equal(t, tc.wantInfo, bytes.Contains(buf.Bytes(), []byte("info message")))
			assert.Equal(t, tc.wantWarn, bytes.Contains(buf.Bytes(), []byte("warn message")))
			assert.Contains(t, output, "level=ERROR")
			if tc.wantInfo {
				assert.Contains(t, output, "tag=v1.0.0")
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, LevelInfo, LevelFromEnv())

	t.Setenv("LOG_LEVEL", " DEBUG ")
	assert.Equal(t, LevelDebug, LevelFromEnv())
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: "<not set>",
		},
		{
			name:     "Exactly 4 characters",
			input:    "abcd",
			expected: "<set>",
		},
		{
			name:     "Token-like string",
			input:    "ghp_2Dn5j8fk39Dkf0s",
			expected: "ghp_...***",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskSensitive(tc.input))
		})
	}
}
