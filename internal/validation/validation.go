// Package validation checks screening inputs before a run starts.
package validation

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"resumescreener/internal/errors"
)

const (
	MsgNoFiles         = "No files uploaded. Please upload at least one PDF resume."
	MsgJobDescRequired = "Job description is required. Please enter a job description."
	MsgJobDescTooShort = "Job description is too short. Please provide more details."
	msgTooManyFiles    = "Too many files. Maximum allowed is %d, got %d."
	msgInvalidFormat   = "Invalid file format. Files at positions %v are not valid PDFs. Only PDF format is supported."
	msgJobDescTooLong  = "Job description is too long. Maximum allowed is %d characters, got %d."
)

var pdfMagic = []byte("%PDF")

// ValidateDocuments checks the count of uploaded documents and that each one
// carries the PDF signature. Invalid positions are reported 1-based.
func ValidateDocuments(files [][]byte, maxFiles int) error {
	if err := ValidateFileCount(len(files), maxFiles); err != nil {
		return err
	}

	var invalid []int
	for i, file := range files {
		if !IsPDF(file) {
			invalid = append(invalid, i+1)
		}
	}
	if len(invalid) > 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidPDF,
			fmt.Sprintf(msgInvalidFormat, invalid), nil).
			WithContext("positions", invalid)
	}
	return nil
}

// ValidateFileCount checks that count lies in [1, maxFiles].
func ValidateFileCount(count, maxFiles int) error {
	if count < 1 {
		return errors.NewValidationError(errors.ErrCodeNoFiles, MsgNoFiles, nil)
	}
	if count > maxFiles {
		return errors.NewValidationError(errors.ErrCodeTooManyFiles,
			fmt.Sprintf(msgTooManyFiles, maxFiles, count), nil)
	}
	return nil
}

// IsPDF reports whether data starts with the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// ValidateJobDescription checks a job description. Length is counted in
// characters after trimming surrounding whitespace.
func ValidateJobDescription(description string, minLength, maxLength int) error {
	if description == "" {
		return errors.NewValidationError(errors.ErrCodeJobDescRequired, MsgJobDescRequired, nil)
	}

	length := utf8.RuneCountInString(strings.TrimSpace(description))
	if length < minLength {
		return errors.NewValidationError(errors.ErrCodeJobDescTooShort, MsgJobDescTooShort, nil)
	}
	if length > maxLength {
		return errors.NewValidationError(errors.ErrCodeJobDescTooLong,
			fmt.Sprintf(msgJobDescTooLong, maxLength, length), nil)
	}
	return nil
}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}
