package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/prismql/prism/internal/auth"
	"github.com/prismql/prism/internal/config"
	"github.com/prismql/prism/internal/graphql"
	"github.com/prismql/prism/internal/pipeline"
	"github.com/prismql/prism/internal/registration"
	"github.com/prismql/prism/internal/server"
	"github.com/prismql/prism/internal/storage"
	"github.com/prismql/prism/internal/storage/memory"
	"github.com/prismql/prism/internal/storage/sqlite"
	"github.com/prismql/prism/internal/telemetry"
)

// defaultSDL serves when no schema file is configured. It exposes service
// metadata so a fresh install answers queries out of the box.
const defaultSDL = `
type Query {
	service: Service!
}

type Service {
	name: String!
	startedAt: String!
}
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init("prism", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	startedAt := time.Now().UTC().Format(time.RFC3339)
	phases := &graphql.Phases{
		Resolvers: graphql.Resolvers{
			"Query.service": func(ctx context.Context, parent any, args map[string]any) (any, error) {
				return map[string]any{"name": "prism", "startedAt": startedAt}, nil
			},
		},
		Cache:  graphql.NewDocumentCache(),
		Logger: logger,
	}

	reg := pipeline.NewRegistry()
	registration.RegisterBuiltins(reg, phases)

	engine := pipeline.NewEngine(reg,
		pipeline.WithLogger(logger),
		pipeline.WithTracer(otel.Tracer("prism")),
	)

	sdl, sourceName := defaultSDL, "builtin.graphql"
	if cfg.Schema.Path != "" {
		raw, err := os.ReadFile(cfg.Schema.Path)
		if err != nil {
			log.Fatalf("Failed to read schema: %v", err)
		}
		sdl, sourceName = string(raw), cfg.Schema.Path
	}

	schema, err := graphql.LoadSchema(context.Background(), engine, sourceName, sdl)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	p, err := registration.BuildPipeline(cfg.Pipeline, reg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	timeout, err := time.ParseDuration(cfg.Server.Timeout)
	if err != nil {
		log.Fatalf("Invalid server timeout: %v", err)
	}

	authenticator := auth.NewAuthenticator(cfg.Auth.APIKeys)

	srv := server.New(cfg.Server.Port, timeout, logger, authenticator)
	handler := &server.Handler{
		Engine:   engine,
		Registry: reg,
		Pipeline: p,
		Schema:   schema,
		Store:    store,
		Logger:   logger,
	}
	handler.Routes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("prism started",
		slog.String("schema", sourceName),
		slog.String("storage", cfg.Storage.Type),
		slog.Bool("auth", authenticator != nil),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping")
	}
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "sqlite":
		return sqlite.New(cfg.SQLite.Path)
	default:
		return memory.New(), nil
	}
}
