package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError(ErrCodeNoFiles, "No files uploaded", nil),
			want: "NO_FILES: No files uploaded",
		},
		{
			name: "with cause",
			err:  NewIOError(ErrCodeFileNotReadable, "cannot read", fmt.Errorf("permission denied")),
			want: "FILE_NOT_READABLE: cannot read (caused by: permission denied)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Empty PDF file", UserMessage(NewIOError(ErrCodePDFExtraction, "Empty PDF file", nil)))
	assert.Equal(t, "plain", UserMessage(fmt.Errorf("plain")))
}

func TestIsType(t *testing.T) {
	err := NewAIError(ErrCodeAITimeout, "timeout", nil)
	assert.True(t, IsType(err, ErrorTypeAI))
	assert.False(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsType(fmt.Errorf("x"), ErrorTypeAI))
}

func TestLogErrorUnpacksAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewAIError(ErrCodeAIServiceFailed, "gemini down", nil).WithContext("operation", "resume")
	logger.LogError(err, "call failed", "run_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "call failed", record["msg"])
	assert.Equal(t, "ai", record["error_type"])
	assert.Equal(t, ErrCodeAIServiceFailed, record["error_code"])
	assert.Equal(t, "resume", record["operation"])
	assert.Equal(t, "abc", record["run_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)

	logger, err := New("warn")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLogErrorFindsWrappedAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	inner := NewValidationError(ErrCodeNoFiles, "No files uploaded", nil)
	logger.LogError(fmt.Errorf("screening failed: %w", inner), "command failed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, ErrCodeNoFiles, record["error_code"])
	assert.Equal(t, "screening failed: NO_FILES: No files uploaded", record["error"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
