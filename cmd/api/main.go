package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/docs"
	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/Uthmaanravat/UROps-sub001/internal/database"
	"github.com/Uthmaanravat/UROps-sub001/internal/email"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/handler"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/middleware"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/router"
	"github.com/Uthmaanravat/UROps-sub001/internal/jobs"
	"github.com/Uthmaanravat/UROps-sub001/internal/logger"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/storage"
	"go.uber.org/zap"
)

// @title UROps API
// @version 1.0
// @description Operations API for maintenance companies: scopes of work, pricing, quotes and invoices

// @contact.name API Support
// @contact.email support@urops.co.za

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for system operations

const (
	shutdownTimeout = 30 * time.Second
	learnJobTimeout = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Environment-only config is enough to build the logger
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("PUBLIC_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from Key Vault outside development
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		log.Info("SQLite schema migrated", zap.String("path", cfg.Database.SQLitePath))
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	aiProvider, err := ai.NewFromConfig(ctx, &cfg.AI, log)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	log.Info("AI provider initialized", zap.String("provider", cfg.AI.Provider))

	sender, err := email.NewFromConfig(&cfg.Email, log)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}
	log.Info("Email sender initialized", zap.String("provider", cfg.Email.Provider))

	m := metrics.New()

	// Repositories
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	sowRepo := repository.NewSOWRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	numberRepo := repository.NewNumberSequenceRepository(db)
	logRepo := repository.NewSubmissionLogRepository(db)
	pricingRepo := repository.NewPricingKnowledgeRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Workflow core first, the other services build on it
	numbering := service.NewNumberingService(numberRepo, logRepo, m, log)
	advancer := service.NewStageAdvancer(projectRepo, m, log)
	linker := service.NewDocumentLinker(db, invoiceRepo, projectRepo, numbering, advancer, log)
	pricingService := service.NewPricingService(db, pricingRepo, invoiceRepo, companyRepo, aiProvider, m, log)
	sowService := service.NewSOWService(db, sowRepo, projectRepo, invoiceRepo, companyRepo, logRepo, pricingService, linker, advancer, log)
	invoiceService := service.NewInvoiceService(service.InvoiceServiceDeps{
		DB:              db,
		InvoiceRepo:     invoiceRepo,
		ClientRepo:      clientRepo,
		ProjectRepo:     projectRepo,
		CompanyRepo:     companyRepo,
		LogRepo:         logRepo,
		InteractionRepo: interactionRepo,
		Numbering:       numbering,
		Linker:          linker,
		Advancer:        advancer,
		Sender:          sender,
		Metrics:         m,
		Logger:          log,
	})
	scopeService := service.NewScopeService(aiProvider, pricingService, companyRepo, projectRepo, attachmentRepo, fileStorage, m, log)
	companyService := service.NewCompanyService(db, companyRepo, userRepo, log)
	clientService := service.NewClientService(clientRepo, interactionRepo, log)
	projectService := service.NewProjectService(projectRepo, clientRepo, attachmentRepo, log)
	submissionLogService := service.NewSubmissionLogService(logRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)
	tenantGuard := middleware.NewTenantGuard(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, m, authMiddleware, tenantGuard, rateLimiter, router.Handlers{
		Auth:       handler.NewAuthHandler(companyService, log),
		Company:    handler.NewCompanyHandler(companyService, numbering, log),
		Client:     handler.NewClientHandler(clientService, log),
		Project:    handler.NewProjectHandler(projectService, log),
		SOW:        handler.NewSOWHandler(sowService, log),
		Invoice:    handler.NewInvoiceHandler(invoiceService, linker, log),
		Pricing:    handler.NewPricingHandler(pricingService, log),
		Scope:      handler.NewScopeHandler(scopeService, cfg.Storage.MaxUploadSizeMB, log),
		Submission: handler.NewSubmissionHandler(submissionLogService, log),
	})

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		learnJob := jobs.NewPricingLearnJob(pricingService, cfg.Jobs.PricingLearnBatch, learnJobTimeout, m, log.Named("pricing_learn"))
		if err := jobs.RegisterPricingLearnJob(scheduler, learnJob, cfg.Jobs.PricingLearnSchedule); err != nil {
			log.Error("Failed to register pricing learn job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started",
				zap.Strings("jobs", scheduler.JobNames()),
				zap.String("pricing_learn_cron", cfg.Jobs.PricingLearnSchedule),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}
