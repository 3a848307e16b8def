package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resumescreener/internal/errors"
)

// promptFile is one configured prompt file and the field it fills.
type promptFile struct {
	operation string
	kind      string
	path      string
	target    *string
}

func (c *Config) promptFiles() []promptFile {
	var files []promptFile
	for _, op := range c.operations() {
		prompts := &op.cfg.Prompts
		if prompts.SystemFile != "" {
			files = append(files, promptFile{op.name, "system", prompts.SystemFile, &prompts.System})
		}
		if prompts.UserFile != "" {
			files = append(files, promptFile{op.name, "user", prompts.UserFile, &prompts.User})
		}
	}
	return files
}

// loadPromptFiles replaces inline prompt text with the content of any
// configured prompt files. Missing files are reported together before
// anything is read.
func (c *Config) loadPromptFiles(logger *errors.Logger) error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	files := c.promptFiles()
	for _, file := range files {
		content, err := loadPromptFromFile(file.path, file.kind, file.operation)
		if err != nil {
			return err
		}
		*file.target = content
		logger.Debug("Loaded prompt from file",
			"operation", file.operation, "kind", file.kind, "file", file.path, "chars", len(content))
	}
	if len(files) > 0 {
		logger.Info("Custom prompts loaded from files", "count", len(files))
	}
	return nil
}

// loadPromptFromFile returns the trimmed file content. Empty files are an
// error.
func loadPromptFromFile(path, kind, operation string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", kind, operation, path)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", kind, operation, path, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", kind, operation, path)
	}
	return trimmed, nil
}

func (c *Config) validatePromptFiles() error {
	var problems []string
	for _, file := range c.promptFiles() {
		abs, err := filepath.Abs(file.path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", file.kind, file.operation, file.path))
			continue
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", file.kind, file.operation, abs))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
