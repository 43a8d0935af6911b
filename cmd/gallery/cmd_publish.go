package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/config"
	"HiCGallery/internal/manifest"
	"HiCGallery/internal/model"
	"HiCGallery/internal/repository/postgres"
)

var publishManifest string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Mirror the manifest into Postgres",
	Long: `Builds the manifest (or reads one with --manifest) and makes the Postgres
tables match it in one transaction. Needs PG_HOST and PG_DBNAME.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := config.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("error closing the database", zap.Error(err))
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}

	var m *model.Manifest
	if publishManifest != "" {
		m, err = manifest.ReadFile(publishManifest)
	} else {
		m, _, err = newBuilder().Build(ctx)
	}
	if err != nil {
		return err
	}

	repo := postgres.NewGalleryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	stats, err := repo.Sync(ctx, m)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	logger.Info("manifest published",
		zap.Int("categories", stats.Categories),
		zap.Int("cases", stats.Cases),
		zap.Int("entries", stats.Entries),
		zap.Int64("removed_cases", stats.RemovedCases))

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d case(s) with %d image(s); removed %d stale case(s)\n",
		stats.Cases, stats.Entries, stats.RemovedCases)
	return nil
}
