// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/config"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/adapters/platform"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/adapters/scorer"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/adapters/storage"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/api"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/api/apiv1"
	pg "github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/db/postgres"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/fetch"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/logging"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/metrics"
	red "github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/redis"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/sched"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/worker"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	taskRepo := pg.NewImageTaskRepo(pool, tm, cfg.Pipeline.TaskBudget)
	jobRepo := pg.NewSyncJobRepo(pool)

	// ---- Duplicate index (Redis read-through when configured) ----
	var dups repository.DuplicateIndex = pg.NewDuplicateRepo(pool)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		dups = red.NewDupCache(dups, redisClient, cfg.Redis.TTL, logger)
		logger.Info().Msg("duplicate index: postgres with redis cache")
	} else {
		logger.Info().Msg("duplicate index: postgres only")
	}

	// ---- Pipeline adapters ----
	fetcher := fetch.NewHTTPFetcher(cfg.Fetch, logger)

	var qualityScorer adapter.QualityScorer
	switch cfg.Scorer.Mode {
	case "http":
		qualityScorer = scorer.NewHTTPScorer(cfg.Scorer, logger)
		logger.Info().Str("api_url", cfg.Scorer.APIURL).Msg("scorer: http")
	default:
		qualityScorer = scorer.NewRandomScorer(time.Now().UnixNano(), logger)
		logger.Info().Msg("scorer: test model")
	}

	var store adapter.ObjectStore
	switch cfg.Storage.Mode {
	case "supabase":
		store = storage.NewSupabaseStore(cfg.Storage, logger)
		logger.Info().Str("bucket", cfg.Storage.Bucket).Msg("storage: supabase")
	default:
		store = storage.NewMemoryStore()
		logger.Info().Msg("storage: in-memory (non-durable)")
	}

	// ---- Use cases ----
	pipelineUC := usecase.NewPipelineUseCase(taskRepo, dups, fetcher, qualityScorer, store, cfg.Pipeline, cfg.Scorer.Threshold, logger)
	dispatcherUC := usecase.NewDispatcherUseCase(taskRepo, jobRepo, platform.NewNoopCatalog(), logger)
	statsUC := usecase.NewStatsUseCase(taskRepo, logger)

	// ---- Workers ----
	workerPool := worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	processor := worker.NewTaskProcessor(taskRepo, pipelineUC, cfg.Pipeline.PollInterval, cfg.Pipeline.Workers, logger)
	go processor.Start(ctx, workerPool)

	autoSync := sched.NewAutoSyncWorker(cfg.Sync.AutoInterval, cfg.Sync.AutoStoreIDs, dispatcherUC, logger)
	go func() { _ = autoSync.Run(ctx) }()

	// ---- HTTP server ----
	router := api.NewRouter(apiv1.NewServer(dispatcherUC, statsUC, logger), cfg.Web.APIKey, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Web.Port), Handler: router}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
