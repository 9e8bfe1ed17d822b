package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateDub(); err != nil {
		return err
	}
	if c.Translate.MaxChars < 0 {
		return errors.New("translate.max_chars must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.Input == "" || c.Paths.Output == "" || c.Paths.Processed == "" {
		return errors.New("paths.input, paths.output and paths.processed are required")
	}
	// archived files must not land back in the watched folder
	if filepath.Clean(c.Paths.Processed) == filepath.Clean(c.Paths.Input) {
		return errors.New("paths.processed must differ from paths.input")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	switch c.Transcribe.Provider {
	case "openai", "gemini":
		if c.Transcribe.APIKey == "" {
			hint := "GEMINI_API_KEY"
			if c.Transcribe.Provider == "openai" {
				hint = "OPENAI_API_KEY"
			}
			return fmt.Errorf("transcribe.api_key is required for provider %s (or set %s)", c.Transcribe.Provider, hint)
		}
	case "whisper-cpp":
		if c.Transcribe.ModelPath == "" {
			return errors.New("transcribe.model_path is required for provider whisper-cpp")
		}
	default:
		return fmt.Errorf("unsupported transcribe.provider: %s", c.Transcribe.Provider)
	}
	if c.Transcribe.ChunkMinutes < 0 {
		return errors.New("transcribe.chunk_minutes must not be negative")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("unsupported llm.provider: %s", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (or set %s)", keyEnvHint(c.LLM.Provider))
	}
	return nil
}

func (c *Config) validateDub() error {
	if !c.Dub.Enabled {
		return nil
	}
	switch c.Dub.Provider {
	case "edge-tts":
	case "openai":
		if c.Dub.APIKey == "" {
			return errors.New("dub.api_key is required for provider openai (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported dub.provider: %s", c.Dub.Provider)
	}
	if c.Dub.BatchTimeoutSeconds < 0 {
		return errors.New("dub.batch_timeout_seconds must not be negative")
	}
	return nil
}

func keyEnvHint(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "SILICONFLOW_API_KEY or OPENAI_API_KEY"
	}
}
