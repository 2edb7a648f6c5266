package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// PermissionChecker defines the permission evaluation interface
type PermissionChecker interface {
	CheckPermission(ctx context.Context, userID int64, resource, action string) bool
	GetUserPermissions(ctx context.Context, userID int64) ([]Grant, error)
	GetChecker(ctx context.Context, userID int64) (*Checker, error)
}

// RoleManager defines the role management interface
type RoleManager interface {
	CreateRole(ctx context.Context, name, description string, grants ...Grant) (*Role, error)
	GetRole(ctx context.Context, roleID int64) (*Role, error)
	UpdateRole(ctx context.Context, roleID int64, name, description string, expectedVersion int64) (*Role, error)
	DeleteRole(ctx context.Context, roleID int64) error
	AddPermission(ctx context.Context, roleID int64, resource, action, scope string) (*Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
}

// AuditRecorder defines the audit trail interface
type AuditRecorder interface {
	Log(ctx context.Context, entry *AuditEntry) error
	GetLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int, error)
	CleanupOldLogs(ctx context.Context, days int) (int64, error)
}

// LifecycleAdmin defines the soft-delete administration interface
type LifecycleAdmin interface {
	SoftDeleteRecord(ctx context.Context, kind string, id int64) error
	RestoreRecord(ctx context.Context, kind string, id int64) error
	PermanentDelete(ctx context.Context, kind string, id int64) error
	DeletedRecords(ctx context.Context, kind string) ([]SoftRecord, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(tx *Service) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
	RunMigrations(ctx context.Context) (*MigrationStatus, error)
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	GetConnectionPoolConfig() (*PoolConfig, error)
	ResetConnectionPool() error
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
}
