// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"gymdash/internal/config"
	"gymdash/internal/database"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	"gymdash/internal/services"
	"gymdash/internal/store"
	contextutils "gymdash/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetFeatureRequestService() (serviceinterfaces.FeatureRequestService, error)
	GetIssueTracker() (serviceinterfaces.IssueTracker, error)
	GetEmailService() (serviceinterfaces.EmailService, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureStaffUser(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	inMemory      bool
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

var _ ServiceContainerInterface = (*ServiceContainer)(nil)

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// WithMemoryStore makes Initialize skip Postgres and keep everything in process memory.
// Data is lost on shutdown.
func (sc *ServiceContainer) WithMemoryStore() *ServiceContainer {
	sc.inMemory = true
	return sc
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	backend, err := sc.initializeStore(ctx)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize store")
	}

	if err := sc.initializeServices(ctx, backend); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services")
	}

	return nil
}

// storeBackend is everything the services need from persistence.
type storeBackend interface {
	serviceinterfaces.FeatureRequestStore
	serviceinterfaces.AccountStore
}

func (sc *ServiceContainer) initializeStore(ctx context.Context) (storeBackend, error) {
	if sc.inMemory || sc.cfg.Database.InMemory {
		sc.logger.Warn(ctx, "Using in-memory store; data will not survive a restart")
		return store.NewMemoryStore(), nil
	}

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDB(ctx, sc.cfg.Database)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})
	return store.NewPostgresStore(db, sc.logger), nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetFeatureRequestService returns the lifecycle controller
func (sc *ServiceContainer) GetFeatureRequestService() (serviceinterfaces.FeatureRequestService, error) {
	return GetServiceAs[serviceinterfaces.FeatureRequestService](sc, "feature_request")
}

// GetIssueTracker returns the Linear client. It is always present; check IsEnabled.
func (sc *ServiceContainer) GetIssueTracker() (serviceinterfaces.IssueTracker, error) {
	return GetServiceAs[serviceinterfaces.IssueTracker](sc, "linear")
}

// GetEmailService returns the email service
func (sc *ServiceContainer) GetEmailService() (serviceinterfaces.EmailService, error) {
	return GetServiceAs[serviceinterfaces.EmailService](sc, "email")
}

// GetDatabase returns the database instance. Nil in memory mode.
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs shutdown funcs in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errors = append(errors, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(_ context.Context, backend storeBackend) error {
	userService := services.NewUserService(backend, sc.logger)
	sc.services["user"] = userService

	emailService := services.CreateEmailService(sc.cfg, sc.logger)
	sc.services["email"] = emailService

	// Notifications depend on email and on the account store for staff addresses
	notificationService := services.NewNotificationService(sc.cfg, emailService, backend, sc.logger)
	sc.services["notification"] = notificationService

	metrics, err := observability.NewLifecycleMetrics()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to register lifecycle metrics")
	}

	featureRequestService := services.NewFeatureRequestService(backend, backend, sc.cfg.SLA.Policy(), notificationService, metrics, sc.logger)
	sc.services["feature_request"] = featureRequestService

	linearService := services.NewLinearService(sc.cfg, sc.logger)
	sc.services["linear"] = linearService

	return nil
}

// EnsureStaffUser seeds the configured staff login. A no-op unless both
// server.staff_username and server.staff_password are set.
func (sc *ServiceContainer) EnsureStaffUser(ctx context.Context) error {
	if sc.cfg.Server.StaffUsername == "" || sc.cfg.Server.StaffPassword == "" {
		return nil
	}
	userService, err := sc.GetUserService()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to get user service")
	}

	return userService.EnsureStaffUser(ctx, sc.cfg.Server.StaffUsername, sc.cfg.Server.StaffPassword)
}
