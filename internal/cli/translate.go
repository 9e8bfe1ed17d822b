package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

type translateFlags struct {
	target      string
	overlay     bool
	output      string
	concurrency int
}

var translateOpts translateFlags

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate an SRT file with the configured chat model",
	Long: `Translate an SRT file using the chat model, chunking and prompts of the
pipeline. Cue numbers and timestamps are left untouched.

With --overlay every cue holds the translation followed by the original line.

Examples:
  vidtrans translate talk_en.srt
  vidtrans translate talk_en.srt -t Japanese --overlay
  vidtrans translate talk_en.srt -o talk.ja.srt --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranslate(cmd, args[0], translateOpts)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	f := translateCmd.Flags()
	f.StringVarP(&translateOpts.target, "target-language", "t", "", "Target language (default from config)")
	f.BoolVar(&translateOpts.overlay, "overlay", false, "Keep the original line under each translation")
	f.StringVarP(&translateOpts.output, "output", "o", "", "Output path (default: <name>.<language>.srt)")
	f.IntVar(&translateOpts.concurrency, "concurrency", 0, "Parallel translation requests (default from config)")
}

// loadSubtitle parses an SRT file and rejects other formats and empty files.
func loadSubtitle(path string) ([]subtitle.Entry, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".srt" {
		return nil, fmt.Errorf("unsupported subtitle format %q: only .srt is supported", ext)
	}
	entries, err := subtitle.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s contains no subtitle entries", path)
	}
	return entries, nil
}

func runTranslate(cmd *cobra.Command, path string, flags translateFlags) error {
	ctx := cmd.Context()

	if flags.concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", flags.concurrency)
	}
	original, err := loadSubtitle(path)
	if err != nil {
		return err
	}

	if flags.target != "" {
		cfg.Translate.TargetLanguage = flags.target
	}
	if flags.concurrency > 0 {
		cfg.Translate.Concurrency = flags.concurrency
	}
	out := flags.output
	if out == "" {
		out = translatedPath(path, cfg.Translate.TargetLanguage, flags.overlay)
	}

	log := logger.With("input", path, "target_language", cfg.Translate.TargetLanguage)
	log.Infow("Translating subtitles", "entries", len(original), "overlay", flags.overlay)

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	translator, err := newTranslator(completer, cfg, logger)
	if err != nil {
		return err
	}

	text, err := translator.Translate(ctx, subtitle.Format(original))
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	translated, err := subtitle.ParseString(text)
	if err != nil {
		return fmt.Errorf("failed to parse translation: %w", err)
	}
	if missing := len(original) - len(translated); missing > 0 {
		log.Warnw("Some entries were not translated", "missing", missing)
	}
	if flags.overlay {
		translated = subtitle.Overlay(original, translated)
	}

	if err := subtitle.WriteFile(out, subtitle.Format(translated)); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Infow("Subtitles translated", "output", out, "entries", len(translated))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// translatedPath names the output <base>.<language>[.overlay].srt.
func translatedPath(path, lang string, overlay bool) string {
	ext := filepath.Ext(path)
	tag := strings.ToLower(strings.Join(strings.Fields(lang), "_"))
	if overlay {
		tag += ".overlay"
	}
	return strings.TrimSuffix(path, ext) + "." + tag + ext
}
