package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store"
	"github.com/JonMunkholm/priceingest/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the product and run history API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains it within
// the configured shutdown timeout.
func (a *app) serve(ctx context.Context) error {
	products, err := store.Open(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	defer products.Close()

	a.logger.Info("configuration loaded",
		"addr", a.cfg.Server.Addr(),
		"db_driver", a.cfg.Database.Driver,
		"rate_limit_enabled", a.cfg.Rate.Enabled,
		"require_api_key", a.cfg.Security.RequireAPIKey,
	)

	server := web.NewServer(core.NewService(products, a.logger), a.cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", "error", err)
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
