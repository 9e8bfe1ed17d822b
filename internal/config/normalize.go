package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscribe()
	c.normalizeLLM()
	c.normalizeTranslate()
	c.normalizeSummary()
	c.normalizeDub()
	if c.Watch.PollIntervalMS <= 0 {
		c.Watch.PollIntervalMS = defaultPollIntervalMS
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Input) == "" {
		c.Paths.Input = defaultInputDir
	}
	if strings.TrimSpace(c.Paths.Output) == "" {
		c.Paths.Output = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.Processed) == "" {
		c.Paths.Processed = defaultProcessedDir
	}
	if c.Paths.Input, err = expandPath(c.Paths.Input); err != nil {
		return fmt.Errorf("paths.input: %w", err)
	}
	if c.Paths.Output, err = expandPath(c.Paths.Output); err != nil {
		return fmt.Errorf("paths.output: %w", err)
	}
	if c.Paths.Processed, err = expandPath(c.Paths.Processed); err != nil {
		return fmt.Errorf("paths.processed: %w", err)
	}
	if c.Paths.Temp, err = expandPath(c.Paths.Temp); err != nil {
		return fmt.Errorf("paths.temp: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	if c.Transcribe.Provider == "" {
		c.Transcribe.Provider = "openai"
	}
	if c.Transcribe.APIKey == "" {
		if c.Transcribe.Provider == "openai" {
			c.Transcribe.APIKey = os.Getenv("OPENAI_API_KEY")
		} else {
			c.Transcribe.APIKey = envKey(c.Transcribe.Provider)
		}
	}
	if c.Transcribe.Concurrency <= 0 {
		c.Transcribe.Concurrency = 1
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = envKey(c.LLM.Provider)
	}
	// the SiliconFlow defaults only make sense for the openai-compatible client
	if c.LLM.Provider == "openai" {
		if c.LLM.Model == "" {
			c.LLM.Model = defaultLLMModel
		}
	} else {
		if c.LLM.Model == defaultLLMModel {
			c.LLM.Model = ""
		}
		if c.LLM.BaseURL == defaultLLMBaseURL {
			c.LLM.BaseURL = ""
		}
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranslate() {
	if c.Translate.SourceLanguage == "" {
		c.Translate.SourceLanguage = c.Transcribe.Language
	}
	if c.Translate.TargetLanguage == "" {
		c.Translate.TargetLanguage = defaultTargetLanguage
	}
	if c.Translate.MaxChars == 0 {
		c.Translate.MaxChars = defaultMaxChars
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = 1
	}
}

func (c *Config) normalizeSummary() {
	if c.Summary.MaxInputChars <= 0 {
		c.Summary.MaxInputChars = defaultSummaryInputChars
	}
	if c.Summary.MaxTokens <= 0 {
		c.Summary.MaxTokens = defaultSummaryMaxTokens
	}
	if c.Summary.MaxLength <= 0 {
		c.Summary.MaxLength = defaultSummaryMaxLength
	}
}

func (c *Config) normalizeDub() {
	c.Dub.Provider = strings.ToLower(strings.TrimSpace(c.Dub.Provider))
	if c.Dub.Provider == "" {
		c.Dub.Provider = defaultDubProvider
	}
	if c.Dub.APIKey == "" && c.Dub.Provider == "openai" {
		c.Dub.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Dub.BatchSize <= 0 {
		c.Dub.BatchSize = defaultDubBatchSize
	}
	if c.Dub.Concurrency <= 0 {
		c.Dub.Concurrency = 1
	}
}

// envKey returns the API key environment fallback for a provider. The openai
// provider defaults to SiliconFlow's compatible endpoint, so that key wins.
func envKey(provider string) string {
	var names []string
	switch provider {
	case "openai":
		names = []string{"SILICONFLOW_API_KEY", "OPENAI_API_KEY"}
	case "anthropic":
		names = []string{"ANTHROPIC_API_KEY"}
	case "gemini":
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// LLMTimeout is the per-request chat timeout; negative disables it.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.Transcribe.ChunkMinutes) * time.Minute
}

func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.Dub.BatchTimeoutSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalMS) * time.Millisecond
}
