package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "You are a careful recruiter."
	userPromptContent := "Summarise this resume:\n%s"

	systemPromptFile := filepath.Join(tempDir, "system.resume.md")
	userPromptFile := filepath.Join(tempDir, "user.resume.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}
	if err := os.WriteFile(userPromptFile, []byte(userPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Resume: OperationAIConfig{
				Prompts: PromptConfig{
					System:     "inline text that the file replaces",
					SystemFile: systemPromptFile,
					UserFile:   userPromptFile,
				},
			},
		},
	}

	if err := config.loadPromptFiles(testLogger); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if got := config.AI.Resume.Prompts.System; got != systemPromptContent {
		t.Errorf("Expected system prompt %q, got %q", systemPromptContent, got)
	}
	if got := config.AI.Resume.Prompts.User; got != userPromptContent {
		t.Errorf("Expected user prompt %q, got %q", userPromptContent, got)
	}
	if config.AI.Resume.Prompts.SystemFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}
	if config.AI.Requirements.Prompts.System != "" || config.AI.Explain.Prompts.User != "" {
		t.Error("Expected operations without prompt files to stay empty")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name:        "no prompt files",
			config:      &Config{},
			expectError: false,
		},
		{
			name: "existing file",
			config: &Config{AI: AIConfig{
				Requirements: OperationAIConfig{Prompts: PromptConfig{UserFile: validFile}},
			}},
			expectError: false,
		},
		{
			name: "missing file",
			config: &Config{AI: AIConfig{
				Explain: OperationAIConfig{Prompts: PromptConfig{SystemFile: filepath.Join(tempDir, "missing.md")}},
			}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validatePromptFiles()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadPromptFromFileRejectsEmptyFile(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n\t"), 0600); err != nil {
		t.Fatalf("Failed to create empty file: %v", err)
	}

	_, err := loadPromptFromFile(emptyFile, "user", "explain")
	if err == nil {
		t.Fatal("Expected error for empty prompt file")
	}
	if !strings.Contains(err.Error(), "is empty") {
		t.Errorf("Unexpected error: %v", err)
	}
}
