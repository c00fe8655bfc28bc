package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/deepsite/internal/api"
	"github.com/matiasleandrokruk/deepsite/internal/api/mcp"
	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
	"github.com/matiasleandrokruk/deepsite/internal/domain/history"
	"github.com/matiasleandrokruk/deepsite/internal/infra/config"
	"github.com/matiasleandrokruk/deepsite/internal/infra/eventbus"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
	"github.com/matiasleandrokruk/deepsite/internal/infra/sqlite"
	"github.com/matiasleandrokruk/deepsite/internal/server"
	pkgauth "github.com/matiasleandrokruk/deepsite/pkg/auth"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and MCP endpoint",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(cfg))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	return cmd
}

// serve runs the server until ctx is done, then drains it.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	// in-flight streams keep running until Shutdown drains them
	go func() { errCh <- a.server.Start(context.WithoutCancel(ctx)) }()

	select {
	case err := <-errCh:
		shutdownErr := a.server.Shutdown(context.Background())
		return errors.Join(err, shutdownErr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

type app struct {
	server  *server.Server
	handler http.Handler
}

// newApp wires config → catalog → backend → designer → history → router → server.
// The recorder is stopped and the database closed by server.Shutdown.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	backend := newBackend(cfg, cat)

	db, err := openHistoryDB(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	recorder := history.NewRecorder(db, logger)
	recCtx, cancelRec := context.WithCancel(context.WithoutCancel(ctx))
	recDone := recorder.Start(recCtx, bus)
	stopRecorder := closerFunc(func() error {
		cancelRec()
		<-recDone
		if n := bus.Dropped(); n > 0 {
			logger.Warn("run events dropped", "count", n)
		}
		return nil
	})

	opts := []designer.Option{
		designer.WithPublisher(bus),
		designer.WithLogger(logger),
		designer.WithFingerprintKey([]byte(cfg.TokenFingerprintKey)),
	}
	if cfg.LLMBackend == config.BackendOllama {
		opts = append(opts, designer.WithTokenOptional())
	}
	svc := designer.NewService(cat, backend, opts...)

	mcpServer, err := mcp.NewServer(mcp.Config{Catalog: cat, Logger: logger})
	if err != nil {
		return nil, errors.Join(err, stopRecorder.Close(), db.Close())
	}

	deps := api.Deps{
		Logger:         logger,
		Designer:       svc,
		Catalog:        cat,
		Backend:        backend,
		Runs:           recorder,
		DB:             db,
		MCP:            mcpServer.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.AuthEnabled() {
		issuer, err := pkgauth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
		if err != nil {
			return nil, errors.Join(err, stopRecorder.Close(), db.Close())
		}
		deps.Auth = issuer
	}

	router := api.NewRouter(deps)
	srv := server.NewServer(router, server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, logger, stopRecorder, db)

	logger.Info("deepsite configured",
		"backend", cfg.LLMBackend,
		"models", len(cat.Models),
		"database", cfg.DatabasePath,
		"auth", cfg.AuthEnabled(),
	)
	return &app{server: srv, handler: router}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// newBackend registers both backends and routes to the configured one.
func newBackend(cfg *config.Config, cat *catalog.Catalog) *llm.Router {
	return llm.NewRouter(map[string]llm.LLMProvider{
		config.BackendHuggingFace: llm.NewHuggingFaceProvider(cfg.HFRouterURL,
			llm.WithDefaultModel(cat.DefaultModel().Value)),
		config.BackendOllama: llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel),
	}, cfg.LLMBackend)
}

// openHistoryDB opens and migrates the run-history database, creating its
// directory if needed.
func openHistoryDB(ctx context.Context, path string) (*sql.DB, error) {
	if path != sqlite.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return db, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
