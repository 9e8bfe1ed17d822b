package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is picked up from the working directory when no path is given.
const DefaultFileName = "vidtrans.yaml"

type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	LLM        LLMConfig        `yaml:"llm"`
	Translate  TranslateConfig  `yaml:"translate"`
	Summary    SummaryConfig    `yaml:"summary"`
	Dub        DubConfig        `yaml:"dub"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type PathsConfig struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Processed string `yaml:"processed"`
	Temp      string `yaml:"temp"`
}

type TranscribeConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	Language     string `yaml:"language"`
	Prompt       string `yaml:"prompt"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	BinaryPath   string `yaml:"binary_path"`
	ModelPath    string `yaml:"model_path"`
	ChunkMinutes int    `yaml:"chunk_minutes"`
	Concurrency  int    `yaml:"concurrency"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TranslateConfig struct {
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`
	MaxChars       int    `yaml:"max_chars"`
	Concurrency    int    `yaml:"concurrency"`
}

type SummaryConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxInputChars int  `yaml:"max_input_chars"`
	MaxTokens     int  `yaml:"max_tokens"`
	MaxLength     int  `yaml:"max_length"`
}

type DubConfig struct {
	Enabled             bool   `yaml:"enabled"`
	Provider            string `yaml:"provider"`
	Voice               string `yaml:"voice"`
	Model               string `yaml:"model"`
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	BinaryPath          string `yaml:"binary_path"`
	BatchSize           int    `yaml:"batch_size"`
	Concurrency         int    `yaml:"concurrency"`
	BatchTimeoutSeconds int    `yaml:"batch_timeout_seconds"`
}

type WatchConfig struct {
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load decodes the file at path over Default, normalizes and validates it.
// An empty path falls back to DefaultFileName when it exists; the returned
// string is the file actually read, or "" when only defaults were used.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		resolved = ""
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// an explicit path must exist; the implicit default may be absent
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("config file %s: %w", path, err)
		}
		return expanded, true, nil
	}

	info, err := os.Stat(DefaultFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%s is a directory", DefaultFileName)
	}
	return DefaultFileName, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Abs(filepath.Clean(pathValue))
}
