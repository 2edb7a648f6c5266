package accesskit

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// AdminRoleName is the distinguished superuser role. Any active user holding
// a role with this exact name bypasses all permission checks.
const AdminRoleName = "admin"

// Wildcard matches any resource or action in a permission grant.
const Wildcard = "*"

// Well-known actions. Grants may use any verb; these cover the built-in
// surface.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Resources gating the built-in management operations.
const (
	ResourceRole  = "role"
	ResourceUser  = "user"
	ResourceAdmin = "admin"
)

// Permission scopes. The evaluation engine does not interpret scope; it is
// carried for introspection and for callers that refine checks by ownership.
const (
	ScopeOwn    = "own"
	ScopeTenant = "tenant"
	ScopeGlobal = "global"
)

// Audit statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Audit action names used by the convenience loggers.
const (
	AuditActionLogin         = "login"
	AuditActionRegister      = "register"
	AuditActionLogout        = "logout"
	AuditActionEntityCreate  = "entity_create"
	AuditActionEntityUpdate  = "entity_update"
	AuditActionEntityDelete  = "entity_delete"
	AuditActionEntityRestore = "entity_restore"
	AuditActionEntityPurge   = "entity_purge"
)

// Tenant is an isolation boundary. Data carrying a tenant_id must never leak
// across tenants.
type Tenant struct {
	bun.BaseModel `bun:"table:tenants,alias:t"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`

	AuditFields
}

// User is an account within one tenant. The credential hash is opaque to the
// core; issuing and verifying credentials is the identity provider's job.
// Users compose soft-delete and versioning; an inactive or soft-deleted user
// never passes permission evaluation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64  `bun:"id,pk,autoincrement"`
	Username       string `bun:"username,notnull,unique"`
	Email          string `bun:"email,notnull,unique"`
	CredentialHash string `bun:"credential_hash,notnull"`
	IsActive       bool   `bun:"is_active,notnull,default:true"`
	IsVerified     bool   `bun:"is_verified,notnull,default:false"`

	TenantFields
	AuditFields
	SoftDeleteFields
	VersionFields

	Roles []*Role `bun:"m2m:user_roles,join:User=Role"`
}

// RecordID returns the user's identity for lifecycle operations.
func (u *User) RecordID() int64 {
	return u.ID
}

// HasRole reports whether the user holds a role with the given name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r != nil && r.Name == name {
			return true
		}
	}
	return false
}

// Anonymize scrubs personal data while keeping the row so audit references
// stay resolvable.
func (u *User) Anonymize() {
	u.Username = fmt.Sprintf("deleted-user-%d", u.ID)
	u.Email = fmt.Sprintf("deleted-user-%d@invalid.local", u.ID)
	u.CredentialHash = ""
	u.IsActive = false
	u.IsVerified = false
}

// Role is a named set of permission grants. Role names are unique and
// case-sensitive as stored. A role owns its permissions; deleting the role
// cascades to them.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description"`

	AuditFields
	VersionFields

	Permissions []*Permission `bun:"rel:has-many,join:id=role_id"`
}

// Grants returns the role's permissions flattened to Grant values, in stored
// order, duplicates preserved.
func (r *Role) Grants() []Grant {
	grants := make([]Grant, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if p != nil {
			grants = append(grants, p.Grant())
		}
	}
	return grants
}

// Permission is a single grant owned by exactly one role. Duplicate
// (role_id, resource, action) rows are redundant but harmless; the engine
// tolerates them.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	RoleID   int64  `bun:"role_id,notnull"`
	Resource string `bun:"resource,notnull"`
	Action   string `bun:"action,notnull"`
	Scope    string `bun:"scope,notnull,default:'own'"`

	AuditFields
}

// Grant returns the permission as a Grant value.
func (p *Permission) Grant() Grant {
	return Grant{Resource: p.Resource, Action: p.Action, Scope: p.Scope}
}

// UserRole is the user↔role association. Users do not own roles; the
// association has its own lifecycle.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID    int64     `bun:"user_id,pk"`
	RoleID    int64     `bun:"role_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
	Role *Role `bun:"rel:belongs-to,join:role_id=id"`
}

// AuditLog is one append-only record of a security-relevant event. Rows are
// never updated; retention cleanup is the only deletion path and it bypasses
// soft-delete entirely.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID          int64          `bun:"id,pk,autoincrement"`
	Action      string         `bun:"action,notnull"`
	UserID      *int64         `bun:"user_id"` // nil = system action
	EntityType  string         `bun:"entity_type"`
	EntityID    *int64         `bun:"entity_id"`
	OldData     map[string]any `bun:"old_data,type:jsonb"`
	NewData     map[string]any `bun:"new_data,type:jsonb"`
	IPAddress   string         `bun:"ip_address"`
	UserAgent   string         `bun:"user_agent"`
	RequestID   string         `bun:"request_id"`
	Description string         `bun:"description"`
	Status      string         `bun:"status,notnull,default:'success'"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditEntry is used to create new audit log records.
type AuditEntry struct {
	Action      string
	UserID      *int64
	EntityType  string
	EntityID    *int64
	OldData     map[string]any
	NewData     map[string]any
	Description string
	Status      string
}

// ToModel converts an AuditEntry to an AuditLog, filling request metadata
// from context and stamping the creation time.
func (e *AuditEntry) ToModel(ctx context.Context) *AuditLog {
	status := e.Status
	if status == "" {
		status = StatusSuccess
	}
	userID := e.UserID
	if userID == nil {
		if actor := GetActorID(ctx); actor != 0 {
			userID = &actor
		}
	}
	return &AuditLog{
		Action:      e.Action,
		UserID:      userID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		OldData:     e.OldData,
		NewData:     e.NewData,
		IPAddress:   GetIPAddress(ctx),
		UserAgent:   GetUserAgent(ctx),
		RequestID:   GetRequestID(ctx),
		Description: e.Description,
		Status:      status,
		CreatedAt:   time.Now(),
	}
}
