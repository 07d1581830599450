package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sentilabel/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI",
	Long: `Runs the labeling UI over HTTP. The listen address defaults to
SERVER_HOST:SERVER_PORT. When DATABASE_URL is set, finished reports are
also archived to Postgres.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SERVER_HOST and SERVER_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, nil, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("configuration loaded",
		"port", a.cfg.Server.Port,
		"documents", a.cfg.Storage.DocumentsDir,
		"results", a.cfg.Storage.ResultsDir,
		"archive_enabled", a.archive != nil,
		"rate_limit_enabled", a.cfg.Rate.Enabled,
	)

	machine, initErr := a.machine()
	server := web.NewServer(machine, a.cfg)
	if initErr != nil {
		a.logger.Warn("saved progress could not be read", "error", initErr)
		server.ShowError(initErr)
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		server.Run(gctx)
		return nil
	})

	if a.cfg.Storage.WatchDocuments {
		g.Go(func() error {
			return a.catalog.Watch(gctx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server stopped", "error", err)
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
