package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/application/workflow"
	"github.com/garyjia/caf-approval/internal/infrastructure/metrics"
	httpapi "github.com/garyjia/caf-approval/internal/interfaces/http"
	"github.com/garyjia/caf-approval/internal/notification"
	"github.com/garyjia/caf-approval/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and are torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	store     port.RequestStore
	db        *database.DB
	dispatch  *DispatcherBundle
	observers *ObserverBundle
	engine    workflow.Engine
	server    *httpapi.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes all components:
// 1. Request store (and migrations)
// 2. Dispatcher with metrics
// 3. Observers
// 4. Workflow engine
// 5. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	stores, err := ProvideStore(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.store = stores.Store
	c.db = stores.DB
	c.logger.Info("Request store initialized", zap.String("driver", c.config.Database.Driver))

	c.dispatch, err = ProvideDispatcher(&c.config.Dispatcher, c.logger)
	if err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	c.observers, err = ProvideObservers(c.config, c.logger)
	if err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize observers: %w", err)
	}
	for _, o := range c.observers.Observers {
		c.dispatch.Dispatcher.Subscribe(o)
	}
	c.logger.Info("Observers subscribed", zap.Int("count", c.dispatch.Dispatcher.ObserversCount()))

	c.engine, err = ProvideEngine(c.store, c.dispatch.Dispatcher, &c.config.Dispatcher, c.logger)
	if err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}

	c.server = ProvideHTTPServer(&c.config.Server, c.engine, c.dispatch, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close releases external resources in reverse start order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	var errs []error

	if c.observers != nil && c.observers.RedisClient != nil {
		if err := c.observers.RedisClient.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	if err := c.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDB() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.db = nil
	return err
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	fail := func(name, msg string) {
		status.Components[name] = ComponentHealth{Healthy: false, Message: msg}
		status.Overall = false
	}

	switch {
	case c.store == nil:
		fail("store", "not initialized")
	case c.db != nil:
		if err := c.db.PingContext(ctx); err != nil {
			fail("store", fmt.Sprintf("ping failed: %v", err))
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true}
		}
	default:
		status.Components["store"] = ComponentHealth{Healthy: true, Message: "in-memory"}
	}

	if c.dispatch == nil {
		fail("dispatcher", "not initialized")
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("observers: %d", c.dispatch.Dispatcher.ObserversCount()),
		}
	}

	if c.observers != nil && c.observers.RedisClient != nil {
		if err := c.observers.RedisClient.Ping(ctx).Err(); err != nil {
			fail("redis", fmt.Sprintf("ping failed: %v", err))
		} else {
			status.Components["redis"] = ComponentHealth{Healthy: true}
		}
	}

	return status
}

// Store returns the request store.
func (c *Container) Store() port.RequestStore {
	return c.store
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() *dispatcher.Dispatcher {
	if c.dispatch == nil {
		return nil
	}
	return c.dispatch.Dispatcher
}

// Metrics returns the dispatcher metrics.
func (c *Container) Metrics() *metrics.DispatcherMetrics {
	if c.dispatch == nil {
		return nil
	}
	return c.dispatch.Metrics
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.Engine {
	return c.engine
}

// Recorder returns the recording observer, nil unless notifications use the log channel.
func (c *Container) Recorder() *notification.RecordingObserver {
	if c.observers == nil {
		return nil
	}
	return c.observers.Recorder
}

// HTTPServer returns the HTTP adapter.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
