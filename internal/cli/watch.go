package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/config"
	"github.com/hua1232/AI-video-translate-lear/internal/watcher"
)

func runWatch(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureDirs(cfg); err != nil {
		return err
	}

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	w, err := watcher.New(cfg.Paths.Input, func(ctx context.Context, path string) error {
		_, err := p.Process(ctx, path)
		return err
	}, logger, watcher.Options{PollInterval: cfg.PollInterval()})
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warnw("Failed to close watcher", "error", err)
		}
	}()

	logger.Infow("Watch mode started",
		"input", cfg.Paths.Input,
		"output", cfg.Paths.Output,
		"processed", cfg.Paths.Processed,
		"dubbing", cfg.Dub.Enabled,
	)
	return w.Run(ctx)
}

func ensureDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.Paths.Input, cfg.Paths.Output, cfg.Paths.Processed} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
