package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/PromptOps/PromptForge/pkg/analyzer"
	appoptimization "github.com/PromptOps/PromptForge/pkg/app/optimization"
	"github.com/PromptOps/PromptForge/pkg/cache"
	"github.com/PromptOps/PromptForge/pkg/classifier"
	"github.com/PromptOps/PromptForge/pkg/config"
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/threat"
	"github.com/PromptOps/PromptForge/pkg/guardrail"
	handlers "github.com/PromptOps/PromptForge/pkg/handlers/http"
	infraLogger "github.com/PromptOps/PromptForge/pkg/infra/logger"
	"github.com/PromptOps/PromptForge/pkg/infra/repository"
	"github.com/PromptOps/PromptForge/pkg/metrics"
	"github.com/PromptOps/PromptForge/pkg/optimizer"
	"github.com/PromptOps/PromptForge/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	// threat pattern table, optionally extended from disk
	table := classifier.DefaultTable()
	if cfg.Guardrails.PatternsFile != "" {
		loaded, err := classifier.LoadTable(cfg.Guardrails.PatternsFile)
		if err != nil {
			logger.Fatalf("Failed to load pattern table: %v", err)
		}
		table = loaded
	}
	threatClassifier := classifier.NewClassifier(table, logger)

	guardrailOpts := []guardrail.Option{
		guardrail.WithDisabledRules(cfg.Guardrails.DisabledRules...),
	}
	if level, ok := threat.ParseLevel(cfg.Guardrails.CriticalThreshold); ok {
		guardrailOpts = append(guardrailOpts, guardrail.WithCriticalThreshold(level))
	}
	guardrailEngine := guardrail.NewEngine(threatClassifier, logger, guardrailOpts...)

	promptAnalyzer := analyzer.NewAnalyzer(logger)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	jobRepository, err := buildJobRepository(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize job repository: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	analysisCache := cache.NewAnalysisCache(redisClient, cfg.Redis.CacheTTL, logger)

	searchEngine := optimizer.NewEngine(promptAnalyzer, guardrailEngine, cfg.Optimizer.Workers, logger)
	runner := appoptimization.NewRunner(
		jobRepository,
		searchEngine,
		guardrailEngine,
		collector,
		logger,
		cfg.Optimizer.JobTimeout,
		cfg.Optimizer.CostPer1KTokens,
	)
	submitter := appoptimization.NewSubmitter(jobRepository, runner, collector, logger)
	finder := appoptimization.NewFinder(jobRepository)

	handlerTransport := handlers.HandlerTransport{
		CreateOptimizationHandler: handlers.NewCreateOptimizationHandler(logger, submitter),
		GetOptimizationHandler:    handlers.NewGetOptimizationHandler(logger, finder),
		ListOptimizationsHandler:  handlers.NewListOptimizationsHandler(logger, finder),
		AnalyzePromptHandler:      handlers.NewAnalyzePromptHandler(logger, promptAnalyzer, analysisCache),
		ScanPromptHandler:         handlers.NewScanPromptHandler(logger, threatClassifier),
		ValidatePromptHandler:     handlers.NewValidatePromptHandler(logger, guardrailEngine, collector),
		GuardrailStatsHandler:     handlers.NewGuardrailStatsHandler(logger, guardrailEngine, table),
	}

	srv := server.NewServer(server.DI{
		HandlerTransport: handlerTransport,
		Config:           cfg,
		Logger:           logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	if err := srv.Run(); err != nil {
		logger.Fatalf("Server terminated: %v", err)
	}

	// let in-flight jobs reach a terminal state before exit
	runner.Wait()
}

func buildJobRepository(cfg *config.Config) (optimization.Repository, error) {
	if !cfg.Database.Enabled {
		return repository.NewMemoryJobRepository(), nil
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewJobRepository(db), nil
}
