package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/internal/manifest"
	"HiCGallery/scripts"
)

var (
	buildOut       string
	buildThumbs    string
	buildThumbSize int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build data.json from the case folders",
	Long: `Scans the images directory, skips every case that fails validation (each
one is logged as a warning) and writes the manifest. With --thumbs, a
thumbnail is rendered for every entry whose thumbnail is missing or stale.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if buildOut != "" {
		cfg.Output = buildOut
	}
	if buildThumbs != "" {
		cfg.ThumbsDir = buildThumbs
	}
	if buildThumbSize > 0 {
		cfg.ThumbSize = buildThumbSize
	}
	if cfg.ThumbsDir != "" && !cfg.WithinRoot(cfg.ThumbsDir) {
		return fmt.Errorf("thumbs dir %s is outside the site root %s", cfg.ThumbsDir, cfg.Root)
	}

	m, warnings, err := newBuilder().Build(ctx)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}

	rendered := 0
	if cfg.ThumbsDir != "" {
		rendered, err = scripts.GenerateThumbnails(ctx, cfg.Root, m, uint(cfg.ThumbSize), logger)
		if err != nil {
			return err
		}
	}

	out := cfg.OutputPath()
	if err := manifest.WriteFile(out, m); err != nil {
		return err
	}
	logger.Info("manifest written",
		zap.String("path", out),
		zap.Int("cases", m.CaseCount()),
		zap.Int("skipped", len(warnings)),
		zap.Int("thumbnails", rendered))

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d case(s) in %d categories, %d skipped\n",
		out, m.CaseCount(), len(m.Categories), len(warnings))
	return nil
}
