package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldwatch/internal/bootstrap"
	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/usecase/query"
	syncusecase "fieldwatch/internal/usecase/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server with the periodic sync scheduler",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, syncSvc *syncusecase.Service, querySvc *query.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := newWSHub()
		defer hub.closeAll()

		server := &http.Server{
			Addr:    app.Config.Server.Addr,
			Handler: newAPIHandler(querySvc, syncSvc, app.SyncState, hub),
		}

		go runSyncScheduler(ctx, syncSvc, hub, app.Config.Sync.Interval)

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "api server started", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
				return
			}
			serveErr <- nil
		}()

		select {
		case err := <-serveErr:
			if err != nil {
				logging.Error(ctx, "api server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve api")
			}
			return nil
		case <-ctx.Done():
		}

		logging.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "api server shutdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "shut down api server")
		}
		return nil
	}),
}

// runSyncScheduler runs one cycle immediately, then one per interval until the
// context is cancelled. Cycle failures are logged and the loop keeps going.
func runSyncScheduler(ctx context.Context, syncSvc syncRunner, hub *wsHub, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	runOnce := func() {
		result, err := syncSvc.Run(ctx)
		if err != nil {
			logging.Error(ctx, "scheduled sync failed", slog.Any("err", errs.Loggable(err)))
			return
		}
		logging.Info(
			ctx,
			"scheduled sync completed",
			slog.Int("issues", result.Issues),
			slog.Int("images", result.Images),
			slog.Int("responses", result.Responses),
		)
		if hub != nil {
			hub.broadcast("data_updated")
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
