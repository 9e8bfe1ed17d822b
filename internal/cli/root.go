package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/config"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vidtrans [video_file]",
	Short: "Translate, summarize and re-dub videos dropped into a folder",
	Long: `vidtrans transcribes a video, translates its subtitles with a chat model,
writes a short summary and optionally dubs the video with synthesized speech.

Without arguments it watches the configured input folder and processes every
video dropped into it, one at a time. With a file argument it processes that
file once and prints a report.

Examples:
  vidtrans
  vidtrans lecture.mp4
  vidtrans -c ~/vidtrans.yaml -v`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// replaced once the configured level is known
		logger = logging.NewLogger(verbose)

		loaded, path, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = logging.NewLoggerWithLevel(level)
		if path != "" {
			logger.Debugw("Config loaded", "path", path)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runWatch(cmd)
		}
		return runSingle(cmd, args[0])
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if logger != nil {
			logger.Errorw("Command failed", "error", err)
		} else {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.DefaultFileName+" when present)")
}
