package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httphandler "github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/http/handler"
	amqpnotify "github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/notification/amqp"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/repository/postgres"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/storage/local"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/compliance"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/document"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/invitation"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/onboarding"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/config"
	pg "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/scheduler"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/server"
)

const notificationQueue = "hr.lifecycle.events"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	invitationRepo := postgres.NewInvitationRepository(dbPool)
	accountRepo := postgres.NewAccountRepository(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	draftRepo := postgres.NewDraftRepository(dbPool)
	formRepo := postgres.NewFormRepository(dbPool)
	documentRepo := postgres.NewDocumentRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)
	complianceRepo := postgres.NewComplianceRepository(dbPool)

	primaryStore, err := local.NewStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Fatalf("failed to initialize primary storage: %v", err)
	}
	var fallbackStore document.BlobStore
	if cfg.Storage.FallbackDir != "" {
		fallbackStore, err = local.NewStore(cfg.Storage.FallbackDir)
		if err != nil {
			log.Fatalf("failed to initialize fallback storage: %v", err)
		}
	}

	var notifier audit.Notifier = audit.NopNotifier{}
	if cfg.Notifications.Enabled {
		amqpNotifier, err := amqpnotify.NewNotifier(cfg.Notifications.URL, notificationQueue)
		if err != nil {
			log.Fatalf("failed to initialize notifier: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	documentSvc := document.NewService(documentRepo, primaryStore, fallbackStore, auditRepo, nil, cfg.Storage.MaxUploadSize)
	employeeSvc := employee.NewService(employeeRepo, accountRepo, documentSvc, auditRepo, notifier, nil, txManager, employee.Policy{
		RequireDocumentsComplete:       cfg.Approval.RequireDocumentsComplete,
		RequireValidLicenses:           cfg.Approval.RequireValidLicenses,
		RequireBackgroundCheckComplete: cfg.Approval.RequireBackgroundCheckComplete,
		ArchiveDocumentsOnReject:       cfg.Approval.ArchiveDocumentsOnReject,
	})
	invitationSvc := invitation.NewService(invitationRepo, employeeSvc, auditRepo, notifier, nil, txManager, nil)
	onboardingSvc := onboarding.NewService(draftRepo, formRepo, employeeRepo, documentSvc, auditRepo, notifier, nil, txManager)
	complianceSvc := compliance.NewService(complianceRepo, notifier, nil, txManager)

	router := httphandler.NewRouter(httphandler.RouterDeps{
		JWTSecret:   cfg.Auth.JWTSecret,
		Invitations: httphandler.NewInvitationHandler(invitationSvc),
		Onboarding:  httphandler.NewOnboardingHandler(onboardingSvc),
		Employees:   httphandler.NewEmployeeHandler(employeeSvc, auditRepo),
		Documents:   httphandler.NewDocumentHandler(documentSvc, cfg.Storage.MaxUploadSize),
		Compliance:  httphandler.NewComplianceHandler(complianceSvc),
	})

	sweeper := scheduler.New(complianceSvc)
	if err := sweeper.Start(cfg.Compliance.SweepSchedule); err != nil {
		log.Fatalf("failed to start compliance scheduler: %v", err)
	}
	defer sweeper.Stop()

	httpServer := server.New(cfg.Server.ListenAddr, router, cfg.Server.ShutdownTimeout)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
