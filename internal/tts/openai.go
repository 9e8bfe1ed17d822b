package tts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAISynthesizer uses the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	client openai.Client
	model  string
}

func NewOpenAISynthesizer(apiKey string, opts Options) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}

	return &OpenAISynthesizer{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice, outPath string) error {
	if voice == "" {
		voice = DefaultVoice(ProviderOpenAI)
	}
	if err := ensureDir(outPath); err != nil {
		return err
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = fmt.Errorf("speech response was empty")
	}
	if err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}
