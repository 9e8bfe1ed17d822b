// Package tts synthesizes speech for dub batches.
package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Synthesizer writes spoken text to outPath as mp3.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, outPath string) error
}

// speech service provider
type Provider string

const (
	ProviderEdge   Provider = "edge-tts"
	ProviderOpenAI Provider = "openai"
)

type Options struct {
	Model      string
	BaseURL    string
	BinaryPath string // edge-tts executable
}

// DefaultVoice returns the voice used when none is configured.
func DefaultVoice(provider Provider) string {
	switch provider {
	case ProviderOpenAI:
		return "alloy"
	default:
		return "zh-CN-YunxiNeural"
	}
}

// creates Synthesizer based on provider
func Factory(provider Provider, apiKey string, opts Options) (Synthesizer, error) {
	switch provider {
	case ProviderEdge, "":
		return NewEdgeSynthesizer(opts, nil), nil
	case ProviderOpenAI:
		return NewOpenAISynthesizer(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported tts provider: %s", provider)
	}
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
