package pdftext

import (
	"strings"
	"testing"

	"resumescreener/internal/errors"
	"resumescreener/internal/pdftext/pdftest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	data := pdftest.Document(
		[]string{"Jane Doe", "Senior Go Engineer"},
		[]string{"Skills: Go, SQL"},
	)

	text, err := Extract(data)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Skills: Go, SQL")
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		message string
		code    string
	}{
		{name: "empty input", data: nil, message: MsgEmptyFile, code: errors.ErrCodeEmptyInput},
		{name: "no text", data: pdftest.Document([]string{}), message: MsgNoText, code: errors.ErrCodePDFExtraction},
		{name: "garbage", data: []byte("definitely not a pdf"), code: errors.ErrCodePDFExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.data)
			require.Error(t, err)

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, appErr.Message)
			} else {
				assert.Contains(t, appErr.Message, "Failed to extract PDF text: ")
			}
		})
	}
}
