package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ragstack/internal/ai"
	"ragstack/internal/api"
	"ragstack/internal/cache"
	"ragstack/internal/config"
	"ragstack/internal/database/milvus"
	"ragstack/internal/database/minio"
	"ragstack/internal/database/mysql"
	"ragstack/internal/database/redis"
	"ragstack/internal/ingest"
	"ragstack/internal/rag/loaders"
	"ragstack/internal/rag/pipeline"
	"ragstack/internal/rag/splitters"
	"ragstack/internal/rag/vectorstore"
	"ragstack/internal/store"
	"ragstack/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("ragserver")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metadata store.
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.WithError(err).Fatal("mysql connection failed")
	}
	defer mysql.Close()

	docStore := store.NewDocumentStore(db)
	if err := docStore.AutoMigrate(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	// Vector index.
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.WithError(err).Fatal("milvus connection failed")
	}
	defer milvusClient.Close()

	vecStore, err := vectorstore.NewMilvusStore(milvusClient, &cfg.Databases.Milvus, logger.New("vectorstore"))
	if err != nil {
		log.WithError(err).Fatal("vector store setup failed")
	}

	// Blob store.
	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		log.WithError(err).Fatal("minio connection failed")
	}
	blobStore, err := store.NewBlobStore(ctx, minioClient, cfg.Databases.MinIO.Bucket)
	if err != nil {
		log.WithError(err).Fatal("blob store setup failed")
	}

	// Optional answer cache.
	var answerCache *cache.AnswerCache
	if cfg.Databases.Redis.Address != "" {
		rdb, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer redis.Close()
		answerCache = cache.New(rdb, time.Duration(cfg.Databases.Redis.TTL)*time.Second, logger.New("cache"))
	}

	// Model provider, shared by the ingest and query paths.
	provider, err := ai.New(&cfg.AI)
	if err != nil {
		log.WithError(err).Fatal("AI provider setup failed")
	}

	// Pipeline.
	fileDispatcher := loaders.NewFileDispatcher()
	webLoader := loaders.NewWebLoader(time.Duration(cfg.Ingest.FetchTimeout) * time.Second)
	splitter := splitters.NewRecursiveCharacterSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	indexer := pipeline.NewIndexer(provider, vecStore, logger.New("indexer"))
	retriever := pipeline.NewRetriever(provider, vecStore, cfg.Ingest.TopK)
	composer := pipeline.NewComposer(retriever, provider, cfg.Ingest.PreviewLength, logger.New("composer"))

	orchestrator := ingest.NewOrchestrator(
		docStore, blobStore, fileDispatcher, webLoader, splitter, indexer,
		cfg.Ingest.QueueSize, logger.New("ingest"),
	)
	orchestrator.Start(ctx, cfg.Ingest.Workers)

	// HTTP surface.
	checks := map[string]api.HealthCheck{
		"mysql":  mysql.HealthCheck,
		"milvus": milvusClient.HealthCheck,
		"minio":  minio.HealthCheck,
	}
	if answerCache != nil {
		checks["redis"] = redis.HealthCheck
	}

	router := api.NewRouter(
		cfg.Auth.JwtSecret,
		api.NewDocumentHandler(docStore, blobStore, fileDispatcher, orchestrator, vecStore, int64(cfg.Ingest.MaxUploadMB)<<20, logger.New("api")),
		api.NewChatHandler(composer, answerCache, logger.New("api")),
		checks,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown failed")
	}
	if err := orchestrator.Wait(); err != nil {
		log.WithError(err).Error("ingestion workers exited with error")
	}
	log.Info("bye")
}
