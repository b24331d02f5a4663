package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flyup/recruit-backend/internal/config"
	"github.com/flyup/recruit-backend/internal/core/ports"
	"github.com/flyup/recruit-backend/internal/core/usecase"
	"github.com/flyup/recruit-backend/internal/infrastructure/analysis"
	"github.com/flyup/recruit-backend/internal/infrastructure/pdfcheck"
	"github.com/flyup/recruit-backend/internal/infrastructure/queue/nats"
	"github.com/flyup/recruit-backend/internal/infrastructure/report"
	"github.com/flyup/recruit-backend/internal/infrastructure/repository/postgres"
	"github.com/flyup/recruit-backend/internal/infrastructure/resilience"
	"github.com/flyup/recruit-backend/internal/infrastructure/storage/localfs"
	"github.com/flyup/recruit-backend/internal/infrastructure/storage/s3"
	"github.com/flyup/recruit-backend/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.CompletionQueue

	Offers   ports.OfferLedger
	Profiles ports.ProfileService
	Triage   ports.FilterTriage
	Catalog  ports.CatalogService
	Analysis ports.AnalysisRunner
	Sweeper  ports.Sweeper

	// FileHandler serves stored objects in local storage mode; nil when the
	// object store issues its own URLs.
	FileHandler http.Handler

	closeFn func()
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)
	bootLog := logging.Component(logger, "bootstrap")

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	offerRepo := postgres.NewOfferRepository(db)
	profileRepo := postgres.NewPersonalInfoRepository(db)
	candidateRepo := postgres.NewCandidateRepository(db)
	filterRepo := postgres.NewFilterRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	var store ports.ObjectStore
	var fileHandler http.Handler
	switch cfg.StorageBackend {
	case "s3":
		store, err = s3.New(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
	case "local":
		local, lerr := localfs.New(cfg.LocalStoragePath, cfg.PublicFileBaseURL)
		if lerr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init local storage: %w", lerr)
		}
		store = local
		fileHandler = http.FileServer(http.Dir(cfg.LocalStoragePath))
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.Logger = logging.Component(logger, "resilience")
	executor := resilience.NewExecutor(resilienceCfg)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	analyzer := analysis.New(cfg.GradeAnalysisURL, cfg.AnalysisTimeout, executor)

	offers := usecase.NewOfferService(offerRepo, store, queue)
	profiles := usecase.NewProfileService(profileRepo, store)
	runner := usecase.NewAnalysisService(filterRepo, profileRepo, candidateRepo, store, analyzer)
	sweeper := usecase.NewSweepService(offerRepo, candidateRepo, filterRepo, runner)
	triage := usecase.NewFilterService(filterRepo, report.NewExcelExporter())
	catalog := usecase.NewCatalogManager(catalogRepo, store, pdfcheck.New())

	bootLog.Info("components wired",
		"storage_backend", cfg.StorageBackend,
		"nats_subject", cfg.NATSSubject,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		Offers:   offers,
		Profiles: profiles,
		Triage:   triage,
		Catalog:  catalog,
		Analysis: runner,
		Sweeper:  sweeper,

		FileHandler: fileHandler,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
