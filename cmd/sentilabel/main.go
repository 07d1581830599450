// Command sentilabel runs the sentiment labeling tool as a web server or a
// terminal UI, plus a few maintenance commands for its local state.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/JonMunkholm/sentilabel/internal/config"
	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/JonMunkholm/sentilabel/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentilabel",
	Short: "Label CSV records as positive, neutral or negative",
	Long: `sentilabel walks a reviewer through the records of a CSV file one at a
time, records a sentiment for each, and writes a report with a
sentiment_by_<name> column when the file is finished.

Progress can be saved and resumed. Finished files are remembered so they
are not labeled twice.

Examples:
  sentilabel serve                 # web UI on http://127.0.0.1:8501
  sentilabel tui                   # terminal UI
  sentilabel files                 # list source files
  sentilabel progress show         # show the saved session`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(completedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the stores shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	catalog  *core.Catalog
	progress *core.ProgressStore
	exporter *core.Exporter
	pool     *pgxpool.Pool
	archive  core.Archiver
}

// setup loads configuration and builds the stores. Logs go to logOut, or
// stdout when nil. When withDB is set and a database URL is configured,
// reports are also archived to Postgres.
func setup(ctx context.Context, logOut io.Writer, withDB bool) (*app, error) {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envLoaded := godotenv.Overload() == nil

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, logOut)
	logger.Debug("configuration loaded", "env_file", envLoaded, "config", cfg.String())

	catalog, err := core.NewCatalog(cfg.Storage.DocumentsDir, cfg.Storage.CompletedFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      *cfg,
		logger:   logger,
		catalog:  catalog,
		progress: core.NewProgressStore(cfg.Storage.ProgressFile),
		exporter: core.NewExporter(cfg.Storage.ResultsDir),
	}

	if withDB && cfg.Database.Enabled() {
		if err := a.connect(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// connect opens the report archive database.
func (a *app) connect(ctx context.Context) error {
	db := a.cfg.Database

	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)

	connectCtx, cancel := context.WithTimeout(ctx, db.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	archive := core.NewPGArchive(pool)
	if err := archive.EnsureSchema(connectCtx); err != nil {
		pool.Close()
		return err
	}

	if u, err := url.Parse(db.URL); err == nil {
		a.logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		a.logger.Info("connected to database")
	}

	core.ArchiveTimeout = db.ArchiveTimeout
	a.pool = pool
	a.archive = archive
	return nil
}

// machine builds a session machine and runs Init. The machine is usable
// even when Init fails; the error is for the caller to show.
func (a *app) machine() (*core.Machine, error) {
	m := core.NewMachine(core.MachineConfig{
		Catalog:  a.catalog,
		Progress: a.progress,
		Exporter: a.exporter,
		Archive:  a.archive,
		Logger:   a.logger,
	})
	return m, m.Init()
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
