package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
)

func runSingle(cmd *cobra.Command, videoPath string) error {
	if err := checkVideo(videoPath); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureDirs(cfg); err != nil {
		return err
	}

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	report, err := p.Process(ctx, videoPath)
	fmt.Fprintln(cmd.OutOrStdout(), report.Render())

	if stdinIsTerminal() {
		fmt.Fprint(cmd.OutOrStdout(), "Done. Press Enter to exit...")
		waitForEnter(cmd.InOrStdin())
	}
	return err
}

func checkVideo(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !audio.IsVideoFile(path) {
		return fmt.Errorf("unsupported file type: %s (expected one of %v)", filepath.Ext(path), audio.VideoExtensions())
	}
	return nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func waitForEnter(r io.Reader) {
	_, _ = bufio.NewReader(r).ReadString('\n')
}
