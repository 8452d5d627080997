package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/api"
	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/pkg/logger"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cached datasets and reports over HTTP",
		Long:  "Starts a local HTTP server with a JSON listing of cached datasets, per-dataset metadata, on-the-fly report pages and raw archive downloads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.cfg.EnsureDataDir()
			if err != nil {
				return err
			}

			rebuild := !sqlite.Exists(dataDir)
			store, err := sqlite.Open(dataDir, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			if rebuild {
				if _, err := cache.Refresh(dataDir, store, a.log); err != nil {
					return err
				}
			}

			router := api.NewRouter(store, a.cfg, a.log)
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
			}
			server := &http.Server{
				Addr:         addr,
				Handler:      router.Routes(),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Starting HTTP server", logger.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("HTTP server error: %w", err)
			case <-sigCh:
			}

			a.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server shutdown error: %w", err)
			}
			a.log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: host:port from the config)")
	return cmd
}
