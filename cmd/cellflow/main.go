package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/cellflow/internal/application/engine"
	"github.com/aescanero/cellflow/internal/config"
	"github.com/aescanero/cellflow/internal/notebook"
	eventsmemory "github.com/aescanero/cellflow/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/cellflow/pkg/adapters/events/redis"
	"github.com/aescanero/cellflow/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/cellflow/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/cellflow/pkg/adapters/storage/redis"
	"github.com/aescanero/cellflow/pkg/api/grpc"
	"github.com/aescanero/cellflow/pkg/api/http"
	"github.com/aescanero/cellflow/pkg/api/websocket"
	"github.com/aescanero/cellflow/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting cellflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize Redis client when a backend needs it
	ctx := context.Background()
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	var eventBus ports.EventBus
	if cfg.EventBackend == config.BackendRedis {
		eventBus, err = eventsredis.NewStreamsEventBus(
			redisClient,
			"cellflow-streams",
			fmt.Sprintf("cellflow-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
	} else {
		eventBus = eventsmemory.NewEventBus()
	}

	var snapshotStore ports.SnapshotStore
	if cfg.StoreBackend == config.BackendRedis {
		snapshotStore = storageredis.NewSnapshotStore(redisClient, cfg.Timeouts.SnapshotTTL, logger)
	} else {
		snapshotStore = storagememory.NewSnapshotStore()
	}

	metricsCollector := prometheus.NewCollector()

	// Load the notebook manifest and build the graph
	manifest := notebook.DefaultManifest()
	if cfg.Notebook.ManifestPath != "" {
		manifest, err = notebook.LoadManifest(cfg.Notebook.ManifestPath)
		if err != nil {
			logger.Fatal("failed to load notebook manifest",
				zap.String("path", cfg.Notebook.ManifestPath),
				zap.Error(err))
		}
	}

	g, err := notebook.Build(notebook.Config{
		Manifest: manifest,
		Seed:     cfg.Notebook.Seed,
	})
	if err != nil {
		logger.Fatal("failed to build notebook graph", zap.Error(err))
	}

	eng := engine.New(g, eventBus, snapshotStore, metricsCollector, logger, engine.Options{
		PropagateErrors: cfg.Engine.PropagateErrors,
		CellTimeout:     cfg.Engine.CellTimeout,
	})

	// Compute initial snapshots from the declared defaults
	if err := eng.Evaluate(ctx); err != nil {
		logger.Fatal("initial evaluation failed", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		Engine:   eng,
		Manifest: manifest,
		Logger:   logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, metricsCollector, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Engine: eng,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("cellflow started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("session_id", eng.SessionID()),
		zap.Strings("order", g.TopologicalOrder()))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("cellflow shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
