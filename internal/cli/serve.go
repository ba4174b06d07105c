package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/convene/internal/handler"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the data file and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	a, err := opts.setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := a.logger

	// ── 1. Rehydrate before accepting any request ─────────────────────────
	if _, err := a.svc.Load(ctx); err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	// ── 2. Build the server ──────────────────────────────────────────────
	srv := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      handler.NewRouter(handler.NewEventHandler(a.svc), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 3. Serve until a signal arrives, then drain and save ─────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "data", a.cfg.DataPath())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := a.svc.Save(shutdownCtx); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}
