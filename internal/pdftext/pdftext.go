// Package pdftext turns PDF documents into plain text for resume extraction.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"resumescreener/internal/errors"

	"github.com/ledongthuc/pdf"
)

const (
	MsgEmptyFile = "Empty PDF file"
	MsgNoPages   = "PDF has no pages"
	MsgNoText    = "PDF contains no extractable text"
)

// Extract returns the text of every page joined with newlines and trimmed.
// Parser panics on malformed input are reported as extraction errors.
func Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.NewValidationError(errors.ErrCodeEmptyInput, MsgEmptyFile, nil)
	}

	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = extractionError(fmt.Errorf("%v", p))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extractionError(err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return "", errors.NewValidationError(errors.ErrCodeInvalidPDF, MsgNoPages, nil)
	}

	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", extractionError(err)
		}
		if content != "" {
			parts = append(parts, content)
		}
	}

	text = strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodePDFExtraction, MsgNoText, nil)
	}
	return text, nil
}

func extractionError(cause error) error {
	return errors.NewIOError(errors.ErrCodePDFExtraction,
		fmt.Sprintf("Failed to extract PDF text: %v", cause), cause)
}
