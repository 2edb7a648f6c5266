package accesskit

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an extension to Service
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// MigrationStatus reports which migrations have been applied.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

// Migrations returns all database migrations required for AccessKit.
// Use db.Migrate(ctx, service.Migrations()) to run migrations.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "accesskit-001",
			Description: "Create tenants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS tenants (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL UNIQUE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "accesskit-002",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id BIGSERIAL PRIMARY KEY,
                    username TEXT NOT NULL UNIQUE,
                    email TEXT NOT NULL UNIQUE,
                    credential_hash TEXT NOT NULL,
                    is_active BOOLEAN NOT NULL DEFAULT true,
                    is_verified BOOLEAN NOT NULL DEFAULT false,
                    tenant_id BIGINT NOT NULL REFERENCES tenants(id),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    deleted_at TIMESTAMPTZ,
                    deleted_by_id BIGINT,
                    version BIGINT NOT NULL DEFAULT 1,
                    content_hash TEXT NOT NULL DEFAULT ''
                );
                CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id)`,
		},
		{
			ID:          "accesskit-003",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL UNIQUE,
                    description TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    version BIGINT NOT NULL DEFAULT 1,
                    content_hash TEXT NOT NULL DEFAULT ''
                )`,
		},
		{
			ID:          "accesskit-004",
			Description: "Create permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permissions (
                    id BIGSERIAL PRIMARY KEY,
                    role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
                    resource TEXT NOT NULL,
                    action TEXT NOT NULL,
                    scope TEXT NOT NULL DEFAULT 'own',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS idx_permissions_role_id ON permissions(role_id)`,
		},
		{
			ID:          "accesskit-005",
			Description: "Create user_roles join table",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
                    role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (user_id, role_id)
                )`,
		},
		{
			ID:          "accesskit-006",
			Description: "Create audit_logs table",
			SQL: `
                CREATE TABLE IF NOT EXISTS audit_logs (
                    id BIGSERIAL PRIMARY KEY,
                    action TEXT NOT NULL,
                    user_id BIGINT,
                    entity_type TEXT NOT NULL DEFAULT '',
                    entity_id BIGINT,
                    old_data JSONB,
                    new_data JSONB,
                    ip_address TEXT NOT NULL DEFAULT '',
                    user_agent TEXT NOT NULL DEFAULT '',
                    request_id TEXT NOT NULL DEFAULT '',
                    description TEXT NOT NULL DEFAULT '',
                    status TEXT NOT NULL DEFAULT 'success',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
                CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id)`,
		},
	}
}

// RunMigrations applies all pending migrations.
func (ms *MigrationService) RunMigrations(ctx context.Context) (*MigrationStatus, error) {
	db, ok := ms.db.(*dbkit.DBKit)
	if !ok {
		return nil, fmt.Errorf("migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, ms.Migrations())
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	status := &MigrationStatus{}
	for _, m := range result.Applied {
		status.Applied = append(status.Applied, m.ID)
	}
	return status, nil
}
