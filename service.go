package accesskit

import (
	"github.com/fernandezvara/dbkit"

	"github.com/uptrace/bun"
)

// Config holds process-wide tunables for the core. It is built once at
// startup and passed to NewServiceWithConfig; there are no package globals.
type Config struct {
	// RetentionDays is the audit retention horizon used when cleanup is
	// invoked without an explicit window.
	RetentionDays int

	// DefaultPageSize caps audit queries that do not set a limit.
	DefaultPageSize int

	// CleanupBatchSize bounds each deletion batch of the retention sweeper.
	CleanupBatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RetentionDays:    365,
		DefaultPageSize:  100,
		CleanupBatchSize: 1000,
	}
}

// Service provides permission evaluation, role management, the audit trail
// and the soft-delete administration surface. It integrates with the
// database through dbkit.
//
// Error handling: database operations use dbkit's chainable error wrapping;
// domain failures are sentinel-based (*Error wrapping ErrUnauthorized,
// ErrNotFound, ErrConflict, ErrInvalidArgument) so callers can classify with
// errors.Is or the IsX helpers.
//
// Each inbound operation is expected to run within one request scope; use
// Transaction for multi-step mutations that must commit or roll back as a
// unit.
type Service struct {
	db        dbkit.IDB
	registry  *Registry
	config    Config
	txMonitor *transactionMonitor
}

// NewService creates a new AccessKit service with the default configuration.
//
// Example:
//
//	registry := accesskit.NewRegistry()
//	accesskit.RegisterKind[accesskit.User](registry, "user")
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(registry, db)
func NewService(registry *Registry, db dbkit.IDB) *Service {
	return NewServiceWithConfig(registry, db, DefaultConfig())
}

// NewServiceWithConfig creates a new AccessKit service with an explicit
// configuration.
func NewServiceWithConfig(registry *Registry, db dbkit.IDB, config Config) *Service {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultConfig().RetentionDays
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultConfig().DefaultPageSize
	}
	if config.CleanupBatchSize <= 0 {
		config.CleanupBatchSize = DefaultConfig().CleanupBatchSize
	}

	// The user↔role m2m relation needs the join model registered with bun.
	if kit, ok := db.(*dbkit.DBKit); ok {
		registerJoinModels(kit.Bun())
	}

	return &Service{
		db:        db,
		registry:  registry,
		config:    config,
		txMonitor: newTransactionMonitor(),
	}
}

func registerJoinModels(db *bun.DB) {
	if db != nil {
		db.RegisterModel((*UserRole)(nil))
	}
}

// Registry returns the entity-kind registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Config returns the active configuration.
func (s *Service) Config() Config {
	return s.config
}

// WithDB returns a copy of the Service bound to the given database handle,
// typically a dbkit transaction. The copy shares registry, configuration and
// metrics with the original.
func (s *Service) WithDB(db dbkit.IDB) *Service {
	clone := *s
	clone.db = db
	return &clone
}
