package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"resumescreener/internal/errors"
)

var (
	textExtensions     = []string{".txt", ".md", ".markdown", ".text"}
	documentExtensions = []string{".pdf"}
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a file processor. Input files larger than
// maxFileSize bytes are rejected; zero disables the limit.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads a text file.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	content, err := fp.ReadBytes(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ReadBytes reads a file after checking that it exists, is a regular file
// and fits the size limit.
func (fp *FileProcessor) ReadBytes(filename string) ([]byte, error) {
	if err := fp.validateInputFile(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return content, nil
}

// ReadTextFiles reads resume or job description text files in order.
func (fp *FileProcessor) ReadTextFiles(filenames ...string) ([]string, error) {
	contents := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		if !hasExtension(filename, textExtensions) {
			fp.logger.Warn("File may not be a text file", "filename", filename)
		}
		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}

// ReadDocuments reads PDF resumes in order. Content is checked later by
// the batch validation, so a wrong extension only warns.
func (fp *FileProcessor) ReadDocuments(filenames ...string) ([][]byte, error) {
	documents := make([][]byte, 0, len(filenames))
	for _, filename := range filenames {
		if !hasExtension(filename, documentExtensions) {
			fp.logger.Warn("File may not be a PDF document", "filename", filename)
		}
		content, err := fp.ReadBytes(filename)
		if err != nil {
			return nil, err
		}
		documents = append(documents, content)
	}
	return documents, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks that an output path is not a directory. An
// empty name means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s is a directory", filename), nil)
	}
	return nil
}

func (fp *FileProcessor) validateInputFile(filename string) error {
	if filename == "" {
		return errors.NewValidationError("INVALID_INPUT_FILE", "Filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}

	if info.IsDir() {
		return errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}

	if fp.maxFileSize > 0 && info.Size() > fp.maxFileSize {
		return errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s is %s, larger than the %s limit",
				filename, FormatFileSize(info.Size()), FormatFileSize(fp.maxFileSize)), nil).
			WithContext("size", info.Size())
	}
	return nil
}

func hasExtension(filename string, extensions []string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(filename)))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
