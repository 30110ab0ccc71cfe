package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/herd_ledger/internal/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Apply pending database migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if withMigrations, _ := cmd.Flags().GetBool("migrate"); withMigrations && app.cfg.StoreBackend == "postgres" {
		if err := runMigrations(app.cfg.DatabaseURL, app.cfg.MigrationsPath, app.logger); err != nil {
			return err
		}
	}

	router, err := handlers.NewRouter(app.cfg, app.logger, app.services, app.metrics.Handler())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + app.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("Server starting", slog.String("port", app.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
