package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HiCGallery/internal/router"
	"HiCGallery/internal/service"
	"HiCGallery/internal/watch"
)

const (
	defaultCacheTTL = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

var (
	serveAddr     string
	serveWatch    bool
	serveCacheTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site root with a live manifest",
	Long: `Serves the static site from the root and answers /data.json from a manifest
built on demand, so contributors can preview their cases before opening a
pull request. Also exposes /api/validate and /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	ttl := serveCacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	svc := service.NewGalleryService(newBuilder(), ttl, logger)

	if serveWatch {
		w, err := watch.New(cfg.ImagesPath(), watch.DefaultDebounce, func(context.Context) {
			logger.Info("images changed, dropping cached manifest")
			svc.Invalidate()
		}, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.NewRouter(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("server started", zap.String("addr", addr), zap.String("root", cfg.Root))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
