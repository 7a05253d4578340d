package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/application/workflow"
	"github.com/garyjia/caf-approval/internal/infrastructure/eventstream"
	infraLark "github.com/garyjia/caf-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/caf-approval/internal/infrastructure/metrics"
	"github.com/garyjia/caf-approval/internal/infrastructure/persistence/memory"
	"github.com/garyjia/caf-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/caf-approval/internal/infrastructure/validation"
	httpapi "github.com/garyjia/caf-approval/internal/interfaces/http"
	"github.com/garyjia/caf-approval/internal/notification"
	"github.com/garyjia/caf-approval/pkg/database"
)

// StoreBundle holds the request store and, for SQL drivers, its connection.
type StoreBundle struct {
	Store port.RequestStore
	DB    *database.DB
}

// ProvideStore opens the request store selected by cfg.Driver.
// SQL stores get the embedded schema applied when AutoMigrate is set.
func ProvideStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == StoreMemory {
		logger.Warn("Using in-memory request store, data is lost on restart")
		return &StoreBundle{Store: memory.NewRequestStore()}, nil
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, db, cfg.Driver, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &StoreBundle{
		Store: repository.NewRequestRepository(db, logger),
		DB:    db,
	}, nil
}

// Migrate applies the embedded migrations for driver and returns how many ran
func Migrate(ctx context.Context, db *database.DB, driver string, logger *zap.Logger) (int, error) {
	fsys, err := database.Migrations(driver)
	if err != nil {
		return 0, err
	}
	applied, err := database.NewMigrator(db, logger).RunMigrations(ctx, fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	return applied, nil
}

// DispatcherBundle holds the dispatcher and its metrics.
type DispatcherBundle struct {
	Dispatcher *dispatcher.Dispatcher
	Metrics    *metrics.DispatcherMetrics
}

// ProvideDispatcher creates the event dispatcher with prometheus metrics.
func ProvideDispatcher(cfg *DispatcherConfig, logger *zap.Logger) (*DispatcherBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dispatcher config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	m := metrics.NewDispatcherMetrics()
	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(NewLoggerAdapter(logger)),
		dispatcher.WithHistoryCapacity(cfg.HistoryCapacity),
		dispatcher.WithMetrics(m),
	)
	return &DispatcherBundle{Dispatcher: d, Metrics: m}, nil
}

// ObserverBundle holds the observers subscribed at start-up.
type ObserverBundle struct {
	Observers []dispatcher.Observer
	// Recorder is set when notifications go to the log channel
	Recorder    *notification.RecordingObserver
	RedisClient *redis.Client
}

// ProvideObservers builds the notification observer for the configured
// channel and the Redis stream relay when enabled.
func ProvideObservers(cfg *Config, logger *zap.Logger) (*ObserverBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ObserverBundle{}
	emailCfg := notification.EmailConfig{FrontendBaseURL: cfg.Notification.FrontendBaseURL}

	if cfg.Notification.Enabled {
		switch cfg.Notification.Channel {
		case ChannelLark:
			client := infraLark.NewClient(infraLark.Config{
				AppID:     cfg.Lark.AppID,
				AppSecret: cfg.Lark.AppSecret,
				BaseURL:   cfg.Lark.BaseURL,
			}, logger)
			messenger := infraLark.NewMessenger(client, logger)
			bundle.Observers = append(bundle.Observers, notification.NewEmailObserver(messenger, emailCfg, logger))
		case ChannelLog, "":
			bundle.Recorder = notification.NewRecordingObserver(emailCfg, logger)
			bundle.Observers = append(bundle.Observers, bundle.Recorder)
		default:
			return nil, fmt.Errorf("unsupported notification channel %q", cfg.Notification.Channel)
		}
	}

	if cfg.Redis.Enabled {
		client, err := eventstream.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		bundle.RedisClient = client
		bundle.Observers = append(bundle.Observers, eventstream.NewRedisRelay(client, cfg.Redis.Stream, cfg.Redis.MaxLen))
	}

	return bundle, nil
}

// ProvideEngine creates the workflow engine over store.
func ProvideEngine(store port.RequestStore, d *dispatcher.Dispatcher, cfg *DispatcherConfig, logger *zap.Logger) (workflow.Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithDispatcher(d),
		workflow.WithValidator(validation.NewRequestValidator()),
		workflow.WithLogger(NewLoggerAdapter(logger)),
	}
	if cfg != nil && cfg.LockTerminalDecisions {
		opts = append(opts, workflow.WithTerminalDecisionsLocked())
	}
	return workflow.NewEngine(store, opts...), nil
}

// ProvideHTTPServer creates the HTTP adapter.
func ProvideHTTPServer(cfg *ServerConfig, engine workflow.Engine, bundle *DispatcherBundle, logger *zap.Logger) *httpapi.Server {
	serverCfg := httpapi.DefaultServerConfig()
	if cfg != nil {
		serverCfg = httpapi.ServerConfig{
			Host:            cfg.Host,
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Debug:           cfg.Debug,
		}
	}

	return httpapi.NewServer(serverCfg, engine, bundle.Dispatcher, NewLoggerAdapter(logger),
		httpapi.WithMetricsHandler(bundle.Metrics.Handler()))
}
