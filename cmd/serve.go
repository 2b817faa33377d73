package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/listlens/listlens/internal/handlers"
	"github.com/listlens/listlens/internal/images"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the listlens HTTP API",
		Long: `Starts the listlens HTTP API on the specified port.

Photos posted to /api/upload are compressed to fit the model's upload budget,
transcribed by the configured vision provider and saved as shopping lists.
Lists, items and category review suggestions are managed under /api/sessions.`,
		Example: `  # Start server on default port 8888
  listlens serve

  # Start server on custom port with a SQLite store
  LISTLENS_STORE=sqlite listlens serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			service, err := a.analysis()
			if err != nil {
				return err
			}

			if migrated, err := a.sessions.MigrateLegacy(ctx); err != nil {
				slog.Error("Legacy list migration failed", "err", err)
			} else if migrated != nil {
				slog.Info("Migrated legacy list", "session_id", migrated.ID, "items", len(migrated.Items))
			}

			reviews := a.reconciler(service)
			defer reviews.Wait()

			g := a.gate()
			if !g.Enabled() {
				slog.Warn("No JWT secret configured; uploads are not authenticated")
			}

			handler := handlers.New(handlers.Config{
				Store:          a.sessions,
				Analyzer:       service,
				Reviews:        reviews,
				Gate:           g,
				Fetcher:        images.NewFetcher(cfg.Server.MaxUploadBytes),
				Encoder:        cfg.Encoder.Options,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Register(mux)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("listlens API available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", service.Provider(),
					"model", service.Model(),
					"store", cfg.Store.Backend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
