package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/issblh/internal/api"
	"github.com/star/issblh/internal/auth"
	"github.com/star/issblh/internal/tle"
)

// refreshInterval is how often serve reloads downloaded elements.
const refreshInterval = 6 * time.Hour

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve positions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gen, store, err := a.generator(ctx)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.Config{
				Addr:       a.cfg.HTTP.Addr,
				TrustProxy: a.cfg.HTTP.TrustProxy,
				Auth:       auth.Config{Enabled: a.cfg.Auth.Enabled, Token: a.cfg.Auth.Token},
			}, a.logger, gen, store, store.Ready)

			if a.cfg.TLE.File == "" {
				go a.refreshElements(ctx, store)
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", a.cfg.HTTP.Addr, "auth_enabled", a.cfg.Auth.Enabled, "gravity", a.cfg.Gravity)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case err := <-errc:
				a.logger.Error("server listen error", "error", err)
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("server shutdown error", "error", err)
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}

// refreshElements downloads the catalog on a ticker and swaps it into store.
func (a *app) refreshElements(ctx context.Context, store *tle.Store) {
	cache := tle.NewDiskCache(a.cfg.TLE.CacheDir, a.cfg.TLE.MaxFiles)
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ds, err := store.Reload(func() (*tle.Dataset, error) {
				return a.fetchElements(ctx, cache)
			})
			if err != nil {
				a.logger.Error("TLE refresh failed, keeping current elements", "error", err)
				continue
			}
			a.logger.Info("TLE data refreshed", "count", len(ds.Entries), "source", ds.Source)
		case <-ctx.Done():
			return
		}
	}
}
