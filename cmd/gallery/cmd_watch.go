package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/internal/manifest"
	"HiCGallery/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild data.json whenever the case folders change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b := newBuilder()
	out := cfg.OutputPath()

	rebuild := func(ctx context.Context) {
		m, warnings, err := b.Build(ctx)
		if err != nil {
			logger.Error("rebuild failed", zap.Error(err))
			return
		}
		if err := manifest.WriteFile(out, m); err != nil {
			logger.Error("write manifest failed", zap.Error(err))
			return
		}
		logger.Info("manifest written",
			zap.String("path", out),
			zap.Int("cases", m.CaseCount()),
			zap.Int("skipped", len(warnings)))
	}

	rebuild(ctx)

	w, err := watch.New(cfg.ImagesPath(), watch.DefaultDebounce, rebuild, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching", zap.String("dir", cfg.ImagesPath()))
	<-ctx.Done()
	return nil
}
