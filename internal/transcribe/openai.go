package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

const defaultWhisperModel = "whisper-1"

// OpenAITranscriber uses the Whisper audio API, or any endpoint speaking the
// same protocol, and always asks for verbose_json to get segment timings.
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAITranscriber(ctx context.Context, apiKey string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = defaultWhisperModel
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		options: opts,
	}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var raw string
	if wantsEnglish(t.options.TranscriptLanguage) {
		// the translations endpoint always answers in English
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("whisper translation request failed: %w", err)
		}
		raw = resp.RawJSON()
	} else {
		params := openai.AudioTranscriptionNewParams{
			File:                   file,
			Model:                  openai.AudioModel(t.model),
			ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"segment"},
		}
		if t.options.Language != "" {
			params.Language = openai.String(t.options.Language)
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Transcriptions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("whisper transcription request failed: %w", err)
		}
		raw = resp.RawJSON()
	}

	result, err := decodeVerbose(raw)
	if err != nil {
		return nil, err
	}
	if result.Language == "" {
		result.Language = t.options.Language
	}
	return result, nil
}

func wantsEnglish(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang == "english" || lang == "en"
}

type verboseBody struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

var errNoSpeech = errors.New("response holds neither segments nor text")

// decodeVerbose reads a verbose_json body. A body without segments becomes
// one segment spanning the reported duration.
func decodeVerbose(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response")
	}

	var body verboseBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	result := &Result{Language: body.Language, Duration: seconds(body.Duration)}

	if len(body.Segments) == 0 {
		text := strings.TrimSpace(body.Text)
		if text == "" {
			return nil, errNoSpeech
		}
		result.Segments = []subtitle.Segment{{EndTime: result.Duration, Text: text}}
		return result, nil
	}

	for _, seg := range body.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			result.Segments = append(result.Segments, subtitle.Segment{
				StartTime: seconds(seg.Start),
				EndTime:   seconds(seg.End),
				Text:      text,
			})
		}
	}
	return result, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
