package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/config"
	"HiCGallery/internal/logging"
	"HiCGallery/internal/manifest"
)

var (
	// Global flags
	rootDir    string
	siteConfig string
	verbose    bool

	cfg    *config.Config
	site   config.Site
	logger *zap.Logger
)

// errValidationFailed makes the process exit with status 1 after the report
// has already been printed.
var errValidationFailed = errors.New("validation failed")

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Validate Hi-C case folders and build the gallery manifest",
	Long: `gallery keeps the Hi-C contact map gallery in shape.

Contributors drop case folders under images/ (one folder per assembly and
author, one PNG plus a caption .txt per view). The validator checks the naming
rules and the builder turns every well-formed case into data.json, the single
file the static front end reads.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if rootDir != "" {
		c.Root = rootDir
	}
	if siteConfig != "" {
		abs, err := filepath.Abs(siteConfig)
		if err != nil {
			return err
		}
		c.SiteConfig = abs
	}

	level := c.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.New(level, verbose)
	if err != nil {
		return err
	}

	s, err := config.LoadSite(c.SitePath())
	if err != nil {
		return err
	}

	cfg, site, logger = c, s, l
	logger.Debug("configuration loaded",
		zap.String("root", cfg.Root),
		zap.String("images", cfg.ImagesPath()),
		zap.String("site_config", cfg.SitePath()))
	return nil
}

func newBuilder() *manifest.Builder {
	return manifest.NewBuilder(manifest.Options{
		Root:      cfg.Root,
		ImagesDir: cfg.ImagesDir,
		ThumbsDir: cfg.ThumbsDir,
		Site:      site,
	}, logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Site root holding images/ and data.json (default $GALLERY_ROOT or .)")
	rootCmd.PersistentFlags().StringVar(&siteConfig, "config", "", "Site config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Manifest path (default $GALLERY_OUTPUT or data.json under the root)")
	buildCmd.Flags().StringVar(&buildThumbs, "thumbs", "", "Render thumbnails into this directory under the root")
	buildCmd.Flags().IntVar(&buildThumbSize, "thumb-size", 0, "Longest thumbnail side in pixels (default $GALLERY_THUMB_SIZE or 320)")

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print results as JSON")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :$PORT)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Drop the cached manifest when images change")
	serveCmd.Flags().DurationVar(&serveCacheTTL, "cache-ttl", defaultCacheTTL, "How long a built manifest is reused")

	publishCmd.Flags().StringVar(&publishManifest, "manifest", "", "Publish an existing manifest file instead of building one")

	inboxCmd.Flags().BoolVar(&inboxJSON, "json", false, "Print submissions as JSON")

	rootCmd.AddCommand(buildCmd, checkCmd, serveCmd, watchCmd, publishCmd, inboxCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
