package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codyseavey/versewise/internal/config"
	"github.com/codyseavey/versewise/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(
				cfg *config.Config,
				log *zap.Logger,
				router *gin.Engine,
				worker *services.CacheMaintenanceWorker,
			) error {
				return serve(cmd.Context(), cfg, log, router, worker)
			})
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP listen port")
	cmd.Flags().String("admin-key", "", "key required for /api/admin routes")
	_ = opts.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = opts.v.BindPFlag("server.admin_key", cmd.Flags().Lookup("admin-key"))

	return cmd
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger, router *gin.Engine, worker *services.CacheMaintenanceWorker) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
