package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ryoma-android/takahashi01-sub000/internal/ai"
	"github.com/ryoma-android/takahashi01-sub000/internal/config"
	"github.com/ryoma-android/takahashi01-sub000/internal/ingest"
	"github.com/ryoma-android/takahashi01-sub000/internal/ocr"
	"github.com/ryoma-android/takahashi01-sub000/internal/property"
	"github.com/ryoma-android/takahashi01-sub000/internal/report"
	"github.com/ryoma-android/takahashi01-sub000/internal/repository"
	"github.com/ryoma-android/takahashi01-sub000/internal/server"
	"github.com/ryoma-android/takahashi01-sub000/internal/storage"
	"github.com/ryoma-android/takahashi01-sub000/pkg/database"
	"github.com/ryoma-android/takahashi01-sub000/pkg/utils"
)

func main() {
	// Load .env first so OPENAI_API_KEY and friends are visible to viper.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting property ledger service",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.Error(err))
	}

	// Repositories
	propertyRepo := repository.NewPropertyRepository(db.DB, logger)
	documentRepo := repository.NewDocumentRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	taxInsuranceRepo := repository.NewTaxInsuranceRepository(db.DB, logger)

	// Pipeline components
	uploadStore := storage.NewUploadStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, logger)

	ocrClient := ocr.NewClient(ocr.Config{
		Endpoint:    cfg.OCR.Endpoint,
		Timeout:     cfg.OCR.Timeout,
		MaxPDFPages: cfg.OCR.MaxPDFPages,
	}, logger)

	structurer := ai.NewStructurer(ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)

	resolver := property.NewResolver(propertyRepo, logger)

	pipeline := ingest.NewPipeline(
		ingest.Config{MaxUploadSize: cfg.Storage.MaxUploadSize},
		uploadStore,
		ocrClient,
		structurer,
		resolver,
		documentRepo,
		expenseRepo,
		db,
		logger,
	)

	exporter := report.NewLedgerExporter(expenseRepo, propertyRepo, logger)

	handlers := server.NewHandlers(
		pipeline,
		documentRepo,
		propertyRepo,
		expenseRepo,
		taxInsuranceRepo,
		exporter,
		logger,
	)

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		UploadDir:    cfg.Storage.UploadDir,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
