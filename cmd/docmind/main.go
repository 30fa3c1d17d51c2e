package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"docmind/internal/api"
	"docmind/internal/chunker"
	"docmind/internal/config"
	"docmind/internal/embedding"
	"docmind/internal/extract"
	"docmind/internal/index"
	"docmind/internal/index/memory"
	"docmind/internal/index/milvus"
	"docmind/internal/llm"
	"docmind/internal/pipeline"
	"docmind/internal/service"
	"docmind/internal/session"
	"docmind/internal/themes"
	"docmind/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("docmind")
	appLogger.Info("Starting docmind...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Vector store: Milvus when configured, in-process otherwise.
	var provider index.Provider
	if cfg.Milvus.Address != "" {
		milvusProvider, err := milvus.NewProvider(ctx, cfg.Milvus, logger.New("milvus"))
		if err != nil {
			appLogger.Fatal("Failed to connect to Milvus: " + err.Error())
		}
		defer milvusProvider.Close()
		provider = milvusProvider
		appLogger.Info("Using Milvus session index at " + cfg.Milvus.Address)
	} else {
		provider = memory.NewProvider()
		appLogger.Warn("No Milvus address configured, using the in-memory session index")
	}

	var history session.HistoryStore
	if cfg.Redis.Enabled {
		history = session.NewRedisHistory(cfg.Redis)
		appLogger.Info("Using Redis history store at " + cfg.Redis.Address)
	} else {
		history = session.NewMemoryHistory()
	}

	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		appLogger.Fatal("Failed to create embedding client: " + err.Error())
	}
	completion, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create completion client: " + err.Error())
	}

	sessions := session.NewManager(provider, history, cfg.Sessions, logger.New("session"))
	sessions.StartReaper(ctx)

	svc := service.New(
		sessions,
		pipeline.NewIngestPipeline(
			extract.NewRegistry(),
			chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MinLen),
			embedder,
			sessions,
			cfg.Sessions.IngestParallelism,
			logger.New("ingest"),
		),
		pipeline.NewRetriever(embedder, sessions, cfg.Retrieval.TopK, logger.New("retrieve")),
		pipeline.NewReranker(embedder, cfg.Retrieval.FinalN),
		pipeline.NewSynthesizer(completion, cfg.Retrieval.ContextBudget, logger.New("synthesize")),
		themes.NewEngine(sessions, completion, cfg.Themes, logger.New("themes")),
		logger.New("service"),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.NewHandler(svc, logger.New("api")))

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to serve HTTP: " + err.Error())
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown: " + err.Error())
	}
	appLogger.Info("Server stopped")
}
