package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/engagement-tracker/internal/application/dispatcher"
	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/application/service"
	"github.com/garyjia/engagement-tracker/internal/domain/workflow"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/catalog"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/export"
	infraLark "github.com/garyjia/engagement-tracker/internal/infrastructure/external/lark"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/metrics"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/persistence/repository"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/storage"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/worker"
	httpServer "github.com/garyjia/engagement-tracker/internal/interfaces/http"
	"github.com/garyjia/engagement-tracker/migrations"
	"github.com/garyjia/engagement-tracker/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.TxManager
}

// ServiceDeps holds the collaborators ProvideServices wires together.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Archive    port.DocumentArchive
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// WorkerDeps holds the collaborators ProvideWorkers needs.
type WorkerDeps struct {
	Repos      *RepositoryBundle
	Dispatcher dispatcher.Dispatcher
	WorkerCfg  *WorkerConfig
	Logger     *zap.Logger
}

// ProvideDatabase opens the database and applies pending migrations.
// The embedded schema is used unless cfg.MigrationsDir points elsewhere.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(ctx, cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(ctx, migrations.FS)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewTxManager(db.DB, logger.Named("tx")),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Engagement: repository.NewEngagementRepository(sqlDB, logger),
		History:    repository.NewHistoryRepository(sqlDB, logger),
		Template:   repository.NewTemplateRepository(sqlDB, logger),
	}, nil
}

// ProvideNotifier returns the Lark messenger, or a notifier that only logs when
// notifications are disabled.
func ProvideNotifier(cfg *LarkConfig, notify NotifyConfig, logger *zap.Logger) (port.Notifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if !notify.Enabled {
		logger.Info("Chat notifications disabled")
		return port.NotifierFunc(func(ctx context.Context, message string) error {
			logger.Debug("Notification suppressed", zap.String("message", message))
			return nil
		}), nil
	}

	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}

	sdkClient := infraLark.NewSDKClient(infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		ReceiveIDType: cfg.ReceiveIDType,
		ReceiveID:     cfg.ReceiveID,
	}, logger)

	return infraLark.NewMessenger(sdkClient, logger), nil
}

// ProvideStorage creates the document archive.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.DocumentArchive, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.ArchiveDir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(cfg.ArchiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return storage.NewLocalDocumentArchive(cfg.ArchiveDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ProvideServices creates all application services and subscribes the
// notification handlers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	publisher := dispatcher.AsyncPublisher{Dispatcher: deps.Dispatcher}

	var recorder service.MetricsRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	bundle := &ServiceBundle{
		Engagement: service.NewEngagementService(
			deps.Repos.Engagement,
			deps.Repos.History,
			deps.TxManager,
			workflow.NewEngine(),
			publisher,
			recorder,
			logger,
		),
		Document: service.NewDocumentService(
			deps.Repos.Engagement,
			deps.Repos.Template,
			deps.Archive,
			publisher,
			recorder,
			logger,
		),
		Template: service.NewTemplateService(deps.Repos.Template, logger),
	}

	if deps.Notifier != nil {
		bundle.Notification = service.NewNotificationService(deps.Notifier, recorder, logger)
		bundle.Notification.Register(deps.Dispatcher)
	}

	return bundle, nil
}

// SeedTemplates loads the catalog file and stores its templates.
// A missing catalog file is logged and skipped.
func SeedTemplates(ctx context.Context, cfg *TemplatesConfig, templates service.TemplateService, logger *zap.Logger) error {
	if cfg == nil || cfg.CatalogPath == "" {
		return nil
	}

	if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
		logger.Warn("Template catalog not found, skipping seed", zap.String("path", cfg.CatalogPath))
		return nil
	}

	entries, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return err
	}

	written, err := templates.Seed(ctx, entries, cfg.Overwrite)
	if err != nil {
		return fmt.Errorf("failed to seed templates: %w", err)
	}

	logger.Info("Template catalog applied",
		zap.String("path", cfg.CatalogPath),
		zap.Int("written", written),
		zap.Int("entries", len(entries)))
	return nil
}

// ProvideWorkers creates the worker manager with the overdue watcher registered.
// The watcher dispatches synchronously so an undelivered alert is retried on the next scan.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, *worker.OverdueWatcher, error) {
	if deps == nil || deps.Repos == nil || deps.Dispatcher == nil {
		return nil, nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Logger == nil {
		return nil, nil, fmt.Errorf("logger is required")
	}

	cfg := worker.DefaultOverdueWatcherConfig()
	if deps.WorkerCfg != nil {
		if deps.WorkerCfg.OverdueInterval > 0 {
			cfg.PollInterval = deps.WorkerCfg.OverdueInterval
		}
		if deps.WorkerCfg.OverdueBatchSize > 0 {
			cfg.BatchSize = deps.WorkerCfg.OverdueBatchSize
		}
	}

	manager := worker.NewWorkerManager(deps.Logger)
	watcher := worker.NewOverdueWatcher(cfg, deps.Repos.Engagement, deps.Dispatcher, deps.Logger)
	manager.Register(watcher)

	return manager, watcher, nil
}

// ProvideHTTPServer creates the HTTP adapter over the services.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, m *metrics.Metrics, health func(ctx context.Context) error, logger *zap.Logger) (*httpServer.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	deps := httpServer.Dependencies{
		Engagements: services.Engagement,
		Documents:   services.Document,
		Templates:   services.Template,
		Exporter:    export.NewRegisterExporter(logger),
		HealthCheck: health,
	}
	if m != nil {
		deps.Metrics = m.Handler()
	}

	return httpServer.NewServer(httpServer.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, deps, &zapLoggerAdapter{logger: logger.Named("http")}), nil
}
