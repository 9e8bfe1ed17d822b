package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"

	// files above this go through the Files API instead of inline bytes
	inlineAudioLimit = 15 << 20
)

// GeminiTranscriber asks a Gemini model for a timestamped transcript as a
// JSON array of {start, end, text}.
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var transcriptSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"start": {Type: genai.TypeNumber},
			"end":   {Type: genai.TypeNumber},
			"text":  {Type: genai.TypeString},
		},
		Required: []string{"start", "end", "text"},
	},
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiTranscriber{client: client, model: model, options: opts}, nil
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	audioPart, cleanup, err := t.audioPart(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		audioPart,
	}, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   transcriptSchema,
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini transcription failed: %w", err)
	}

	text := cleanJSONResponse(candidateText(resp))
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	raw, err := extractTranscriptSegments(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w (response: %s)", err, truncateString(text, 200))
	}

	result := &Result{Language: t.options.Language}
	for _, s := range raw {
		result.Segments = append(result.Segments, subtitle.Segment{
			StartTime: seconds(s.Start),
			EndTime:   seconds(s.End),
			Text:      strings.TrimSpace(s.Text),
		})
	}
	if n := len(result.Segments); n > 0 {
		result.Duration = result.Segments[n-1].EndTime
	}
	return result, nil
}

// audioPart inlines small files and uploads large ones. The returned cleanup
// deletes any uploaded file.
func (t *GeminiTranscriber) audioPart(ctx context.Context, audioPath string) (*genai.Part, func(), error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, nil, fmt.Errorf("audio file not found: %w", err)
	}

	if info.Size() <= inlineAudioLimit {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		return genai.NewPartFromBytes(data, audioMIMEType(audioPath)), func() {}, nil
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	cleanup := func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}
	return genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType), cleanup, nil
}

var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

func audioMIMEType(path string) string {
	if mt, ok := audioMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "audio/mpeg"
}

func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	lines := []string{
		"Transcribe this audio into timestamped subtitle lines.",
		"Each element of the JSON array is one sentence or short phrase with 'start' and 'end' in seconds and the spoken 'text'.",
	}
	if lang := t.options.Language; lang != "" {
		lines = append(lines, fmt.Sprintf("The audio is in %s.", lang))
	}
	if out := t.options.TranscriptLanguage; out != "" && out != "native" {
		lines = append(lines, fmt.Sprintf("Output the transcript in %s.", out))
	}
	if t.options.Prompt != "" {
		lines = append(lines, t.options.Prompt)
	}
	lines = append(lines, "Reply with the JSON array only.")
	return strings.Join(lines, " ")
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if !p.Thought {
				sb.WriteString(p.Text)
			}
		}
	}
	return sb.String()
}

var errNoTranscript = errors.New("no transcript array found in response")

// extractTranscriptSegments scans text for the first JSON value that is, or
// wraps, a non-empty segment array. Prose around the JSON is ignored.
func extractTranscriptSegments(text string) ([]transcriptSegment, error) {
	for off := 0; off < len(text); off++ {
		if c := text[off]; c != '[' && c != '{' {
			continue
		}
		var raw json.RawMessage
		if json.NewDecoder(strings.NewReader(text[off:])).Decode(&raw) != nil {
			continue
		}
		if segments, ok := segmentsIn(raw); ok {
			return segments, nil
		}
	}
	return nil, errNoTranscript
}

// preferred wrapper keys; other keys follow in sorted order
var wrapperKeys = []string{"segments", "transcript", "data"}

func segmentsIn(raw json.RawMessage) ([]transcriptSegment, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	if raw[0] == '[' {
		var segments []transcriptSegment
		if json.Unmarshal(raw, &segments) != nil || !validateSegments(segments) {
			return nil, false
		}
		return segments, true
	}

	var obj map[string]json.RawMessage
	if raw[0] != '{' || json.Unmarshal(raw, &obj) != nil {
		return nil, false
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		if !slices.Contains(wrapperKeys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	for _, key := range append(slices.Clone(wrapperKeys), keys...) {
		if value, ok := obj[key]; ok {
			if segments, ok := segmentsIn(value); ok {
				return segments, true
			}
		}
	}
	return nil, false
}

// true when any segment has text or a timestamp
func validateSegments(segments []transcriptSegment) bool {
	return slices.ContainsFunc(segments, func(s transcriptSegment) bool {
		return s.Text != "" || s.Start != 0 || s.End != 0
	})
}

// strips markdown code fences
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		s = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	}
	return strings.TrimSpace(s)
}

func truncateString(s string, maxLen int) string {
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	return s
}
