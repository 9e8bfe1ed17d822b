package config

const (
	defaultInputDir          = "./input_videos"
	defaultOutputDir         = "./output_files"
	defaultProcessedDir      = "./processed_videos"
	defaultTranscribeModel   = "whisper-1"
	defaultSourceLanguage    = "en"
	defaultTargetLanguage    = "Chinese"
	defaultLLMBaseURL        = "https://api.siliconflow.cn/v1/"
	defaultLLMModel          = "Qwen/Qwen2.5-7B-Instruct"
	defaultLLMTimeoutSeconds = 60
	defaultMaxChars          = 3000
	defaultSummaryInputChars = 4000
	defaultSummaryMaxTokens  = 500
	defaultSummaryMaxLength  = 350
	defaultDubProvider       = "edge-tts"
	defaultDubBatchSize      = 20
	defaultPollIntervalMS    = 1000
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			Input:     defaultInputDir,
			Output:    defaultOutputDir,
			Processed: defaultProcessedDir,
		},
		Transcribe: TranscribeConfig{
			Provider:    "openai",
			Model:       defaultTranscribeModel,
			Language:    defaultSourceLanguage,
			Concurrency: 1,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Translate: TranslateConfig{
			TargetLanguage: defaultTargetLanguage,
			MaxChars:       defaultMaxChars,
			Concurrency:    1,
		},
		Summary: SummaryConfig{
			Enabled:       true,
			MaxInputChars: defaultSummaryInputChars,
			MaxTokens:     defaultSummaryMaxTokens,
			MaxLength:     defaultSummaryMaxLength,
		},
		Dub: DubConfig{
			Enabled:     true,
			Provider:    defaultDubProvider,
			BatchSize:   defaultDubBatchSize,
			Concurrency: 1,
		},
		Watch: WatchConfig{
			PollIntervalMS: defaultPollIntervalMS,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}
