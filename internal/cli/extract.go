package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/ffmpeg"
	"github.com/hua1232/AI-video-translate-lear/internal/video"
)

type extractFlags struct {
	format     string
	sampleRate int
	channels   int
	bitrate    string
	output     string
}

var extractOpts extractFlags

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Save the audio track of a video as its own file",
	Long: `Save the audio track of a video as wav, mp3, aac or flac.

Without flags the result is what the transcription engines receive: mono 16 kHz.

Examples:
  vidtrans extract lecture.mp4
  vidtrans extract lecture.mp4 -f mp3 -b 128k -o lecture_audio.mp3
  vidtrans extract lecture.mp4 -f flac -r 48000 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0], extractOpts)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVarP(&extractOpts.format, "format", "f", "wav", "Audio format: wav, mp3, aac or flac")
	f.IntVarP(&extractOpts.sampleRate, "sample-rate", "r", 16000, "Sample rate in Hz")
	f.IntVar(&extractOpts.channels, "channels", 1, "Channel count (1 mono, 2 stereo)")
	f.StringVarP(&extractOpts.bitrate, "bitrate", "b", "", "Bitrate for mp3 and aac, e.g. 128k")
	f.StringVarP(&extractOpts.output, "output", "o", "", "Output path (default: next to the video)")
}

// options turns the flags into extraction options and the output path.
func (f extractFlags) options(videoPath string) (video.ExtractAudioOptions, string, error) {
	format := strings.ToLower(f.format)
	if !video.SupportedAudioFormat(format) {
		return video.ExtractAudioOptions{}, "", fmt.Errorf("unsupported audio format %q", f.format)
	}
	if f.sampleRate <= 0 || f.channels <= 0 {
		return video.ExtractAudioOptions{}, "", fmt.Errorf("sample rate and channels must be positive")
	}

	out := f.output
	if out == "" {
		out = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "." + format
	}
	return video.ExtractAudioOptions{
		Format:     format,
		SampleRate: f.sampleRate,
		Channels:   f.channels,
		Bitrate:    f.bitrate,
	}, out, nil
}

func runExtract(cmd *cobra.Command, videoPath string, flags extractFlags) error {
	ctx := cmd.Context()

	if err := checkVideo(videoPath); err != nil {
		return err
	}
	opts, outputPath, err := flags.options(videoPath)
	if err != nil {
		return err
	}

	processor := video.NewProcessor(ffmpeg.NewRunner(ffmpeg.NewExecutor()))
	info, err := processor.GetInfo(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("failed to probe video: %w", err)
	}
	if !info.HasAudio {
		return fmt.Errorf("%s has no audio stream", videoPath)
	}

	logger.Infow("Extracting audio",
		"video", videoPath,
		"output", outputPath,
		"duration", info.Duration.String(),
		"format", opts.Format,
	)
	if err := processor.ExtractAudio(ctx, videoPath, outputPath, opts); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Audio written to %s\n", outputPath)
	return nil
}
