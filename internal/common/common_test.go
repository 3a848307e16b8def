package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumescreener/internal/errors"
	"resumescreener/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelError)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestReadTextFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "alice.txt", "Alice resume")
	b := writeTemp(t, dir, "bob.md", "Bob resume")

	fp := NewFileProcessor(testLogger, 0)
	contents, err := fp.ReadTextFiles(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice resume", "Bob resume"}, contents)
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "alice.pdf", "%PDF-1.4 alice")
	b := writeTemp(t, dir, "bob.bin", "not a pdf")

	fp := NewFileProcessor(testLogger, 0)
	docs, err := fp.ReadDocuments(a, b)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []byte("%PDF-1.4 alice"), docs[0])
	assert.Equal(t, []byte("not a pdf"), docs[1])
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	big := writeTemp(t, dir, "big.txt", "0123456789")

	tests := []struct {
		name    string
		limit   int64
		file    string
		code    string
		message string
	}{
		{"missing", 0, filepath.Join(dir, "missing.txt"), errors.ErrCodeFileNotFound, "File not found"},
		{"directory", 0, dir, "INVALID_INPUT_FILE", "Path is a directory"},
		{"empty name", 0, "", "INVALID_INPUT_FILE", "Filename cannot be empty"},
		{"too large", 4, big, "FILE_TOO_LARGE", "10 B, larger than the 4 B limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileProcessor(testLogger, tt.limit).ReadFile(tt.file)
			require.Error(t, err)
			assert.Equal(t, tt.code, appCode(t, err))
			assert.Contains(t, errors.UserMessage(err), tt.message)
		})
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2025", "out.csv")

	fp := NewFileProcessor(testLogger, 0)
	require.NoError(t, fp.WriteFile(path, []byte("a,b\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(got))
}

func TestValidateOutputFile(t *testing.T) {
	fp := NewFileProcessor(testLogger, 0)
	assert.NoError(t, fp.ValidateOutputFile(""))
	assert.NoError(t, fp.ValidateOutputFile(filepath.Join(t.TempDir(), "new.json")))

	err := fp.ValidateOutputFile(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "INVALID_OUTPUT_FILE", appCode(t, err))
}

func TestHandleOutput(t *testing.T) {
	requirements := types.JobRequirements{Title: "Data Engineer", RequiredSkills: []string{"SQL"}}

	t.Run("stdout", func(t *testing.T) {
		var stdout bytes.Buffer
		oh := NewOutputHandler(NewFileProcessor(testLogger, 0), &stdout, testLogger)

		require.NoError(t, oh.HandleOutput(requirements, CommandConfig{OutputFormat: "json"}))
		assert.Contains(t, stdout.String(), `"title": "Data Engineer"`)
	})

	t.Run("file", func(t *testing.T) {
		var stdout bytes.Buffer
		path := filepath.Join(t.TempDir(), "req.yaml")
		oh := NewOutputHandler(NewFileProcessor(testLogger, 0), &stdout, testLogger)

		require.NoError(t, oh.HandleOutput(requirements, CommandConfig{OutputFile: path, OutputFormat: "yaml"}))
		assert.Empty(t, stdout.String())

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(got), "title: Data Engineer")
	})

	t.Run("unknown format", func(t *testing.T) {
		oh := NewOutputHandler(NewFileProcessor(testLogger, 0), io.Discard, testLogger)

		err := oh.HandleOutput(requirements, CommandConfig{OutputFormat: "xml"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidFormat, appCode(t, err))
	})
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "job.txt", "We need a data engineer")

	readFirst := func(fp *FileProcessor, args []string) (string, error) {
		return fp.ReadFile(args[0])
	}

	t.Run("success runs after output", func(t *testing.T) {
		var stdout bytes.Buffer
		var after string
		err := RunCommand(context.Background(), testLogger, CommandConfig{OutputFormat: "text"}, 0, &stdout, []string{input},
			Command[string, types.JobRequirements]{
				ReadInput: readFirst,
				Run: func(_ context.Context, in string) (types.JobRequirements, error) {
					return types.JobRequirements{Title: "Data Engineer"}, nil
				},
				AfterOutput: func(_ *OutputHandler, in string, out types.JobRequirements) error {
					after = in + "|" + out.Title
					return nil
				},
			})
		require.NoError(t, err)
		assert.Equal(t, "We need a data engineer|Data Engineer", after)
		assert.Contains(t, stdout.String(), "Data Engineer")
	})

	t.Run("run error without output", func(t *testing.T) {
		var stdout bytes.Buffer
		boom := stderrors.New("boom")
		err := RunCommand(context.Background(), testLogger, CommandConfig{OutputFormat: "json"}, 0, &stdout, []string{input},
			Command[string, types.JobRequirements]{
				ReadInput: readFirst,
				Run: func(context.Context, string) (types.JobRequirements, error) {
					return types.JobRequirements{}, boom
				},
			})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, stdout.String())
	})

	t.Run("run error with output skips after", func(t *testing.T) {
		var stdout bytes.Buffer
		boom := stderrors.New("No resumes could be parsed")
		called := false
		err := RunCommand(context.Background(), testLogger, CommandConfig{OutputFormat: "json"}, 0, &stdout, []string{input},
			Command[string, types.ScreeningReport]{
				ReadInput: readFirst,
				Run: func(context.Context, string) (types.ScreeningReport, error) {
					msg := boom.Error()
					return types.ScreeningReport{RunID: "run-1", Error: &msg}, boom
				},
				OutputOnError: true,
				AfterOutput: func(*OutputHandler, string, types.ScreeningReport) error {
					called = true
					return nil
				},
			})
		assert.ErrorIs(t, err, boom)
		assert.False(t, called)
		assert.Contains(t, stdout.String(), `"error": "No resumes could be parsed"`)
	})

	t.Run("input error", func(t *testing.T) {
		err := RunCommand(context.Background(), testLogger, CommandConfig{OutputFormat: "json"}, 0, io.Discard,
			[]string{filepath.Join(dir, "missing.txt")},
			Command[string, types.JobRequirements]{
				ReadInput: readFirst,
				Run: func(context.Context, string) (types.JobRequirements, error) {
					t.Fatal("Run must not be called")
					return types.JobRequirements{}, nil
				},
			})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeFileNotFound, appCode(t, err))
	})
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "text"}, SupportedFormats([]string{"json", "xml", "text"}))
	assert.ElementsMatch(t, []string{"json", "markdown", "text", "yaml"}, SupportedFormats(nil))
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{10 << 20, "10.0 MB"},
		{1536 << 20, "1.5 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.size))
	}
}
