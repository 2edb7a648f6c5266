package accesskit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ROLE MANAGEMENT
// ============================================================================

// CreateRole creates a new role, optionally seeding it with permissions in
// one call. Requires role:create. Role names are unique; a duplicate name
// surfaces as ErrConflict.
func (s *Service) CreateRole(ctx context.Context, name, description string, grants ...Grant) (*Role, error) {
	if err := s.requirePermission(ctx, ResourceRole, ActionCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewError(ErrInvalidArgument, "role name is required")
	}
	for _, g := range grants {
		if err := ValidateGrant(g.Resource, g.Action); err != nil {
			return nil, err
		}
	}

	role := &Role{
		Name:        name,
		Description: description,
	}
	role.Stamp(time.Now())
	role.IncrementVersion()
	role.ContentHash = ContentHash(role)

	err := s.Transaction(ctx, func(tx *Service) error {
		result, err := tx.db.NewInsert().Model(role).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
			if dbkit.IsDuplicate(err) {
				return NewError(ErrConflict, "role name already exists")
			}
			return err
		}

		if len(grants) == 0 {
			return nil
		}
		perms := make([]*Permission, 0, len(grants))
		for _, g := range grants {
			scope := g.Scope
			if scope == "" {
				scope = ScopeOwn
			}
			p := &Permission{
				RoleID:   role.ID,
				Resource: g.Resource,
				Action:   g.Action,
				Scope:    scope,
			}
			p.Stamp(time.Now())
			perms = append(perms, p)
		}
		_, err = dbkit.BatchInsert(ctx, tx.db, perms, dbkit.BatchSize)
		return dbkit.WithErr1(err, "CreateRolePermissions").Err()
	})
	if err != nil {
		return nil, err
	}

	s.logEntityEvent(ctx, AuditActionEntityCreate, ResourceRole, role.ID, nil, roleSnapshot(role))
	return s.GetRole(ctx, role.ID)
}

// GetRole retrieves a role by ID with its permissions loaded.
func (s *Service) GetRole(ctx context.Context, roleID int64) (*Role, error) {
	role := new(Role)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(role).
		Relation("Permissions").
		Where("r.id = ?", roleID).
		Scan(ctx), "GetRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "role not found").WithEntity(ResourceRole, roleID)
		}
		return nil, err
	}
	return role, nil
}

// GetRoleByName retrieves a role by its unique name with permissions loaded.
func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	role := new(Role)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(role).
		Relation("Permissions").
		Where("r.name = ?", name).
		Scan(ctx), "GetRoleByName").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "role not found")
		}
		return nil, err
	}
	return role, nil
}

// ListRoles returns all roles with their permissions, ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(&roles).
		Relation("Permissions").
		Order("name ASC").
		Scan(ctx), "ListRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// UpdateRole renames or re-describes a role under optimistic locking.
// Requires role:update. Renaming onto an existing name surfaces as
// ErrConflict; a stale expectedVersion as ErrVersionMismatch.
func (s *Service) UpdateRole(ctx context.Context, roleID int64, name, description string, expectedVersion int64) (*Role, error) {
	if err := s.requirePermission(ctx, ResourceRole, ActionUpdate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewError(ErrInvalidArgument, "role name is required")
	}

	before, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	role := &Role{
		ID:          roleID,
		Name:        name,
		Description: description,
	}
	role.CreatedAt = before.CreatedAt
	role.Stamp(time.Now())
	role.Version = expectedVersion
	role.IncrementVersion()
	role.ContentHash = ContentHash(role)

	result, err := s.db.NewUpdate().
		Model(role).
		Column("name", "description", "updated_at", "version", "content_hash").
		Where("id = ?", roleID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "role name already exists").WithEntity(ResourceRole, roleID)
		}
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, dbkit.WithErr1(err, "UpdateRole").Err()
	}
	if rows == 0 {
		return nil, NewError(ErrVersionMismatch, "role was modified concurrently").WithEntity(ResourceRole, roleID)
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceRole, roleID,
		roleSnapshot(before), roleSnapshot(role))
	return s.GetRole(ctx, roleID)
}

// DeleteRole removes a role permanently. Requires role:delete. Its
// permissions and user assignments go with it via database cascade, so every
// holder loses the role's grants on their next check.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	if err := s.requirePermission(ctx, ResourceRole, ActionDelete); err != nil {
		return err
	}

	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	result, err := s.db.NewDelete().
		Model((*Role)(nil)).
		Where("id = ?", roleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbkit.WithErr1(err, "DeleteRole").Err()
	}
	if rows == 0 {
		return NewError(ErrNotFound, "role not found").WithEntity(ResourceRole, roleID)
	}

	s.logEntityEvent(ctx, AuditActionEntityDelete, ResourceRole, roleID, roleSnapshot(role), nil)
	return nil
}

// AddPermission adds a grant to an existing role. Requires role:update. The
// exact (resource, action) pair may only appear once per role through this
// path; a repeat surfaces as ErrConflict.
func (s *Service) AddPermission(ctx context.Context, roleID int64, resource, action, scope string) (*Role, error) {
	if err := s.requirePermission(ctx, ResourceRole, ActionUpdate); err != nil {
		return nil, err
	}
	if err := ValidateGrant(resource, action); err != nil {
		return nil, err
	}
	if scope == "" {
		scope = ScopeOwn
	}

	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	for _, p := range role.Permissions {
		if p.Resource == resource && p.Action == action {
			return nil, NewError(ErrConflict, "permission already granted").
				WithEntity(ResourceRole, roleID).
				WithGrant(resource, action)
		}
	}

	perm := &Permission{
		RoleID:   roleID,
		Resource: resource,
		Action:   action,
		Scope:    scope,
	}
	perm.Stamp(time.Now())

	result, err := s.db.NewInsert().Model(perm).Exec(ctx)
	if err := dbkit.WithErr(result, err, "AddPermission").Err(); err != nil {
		return nil, err
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceRole, roleID,
		roleSnapshot(role), map[string]any{
			"permission_added": Grant{Resource: resource, Action: action, Scope: scope}.String(),
		})
	return s.GetRole(ctx, roleID)
}

// RemovePermission removes a grant from a role. Requires role:update.
func (s *Service) RemovePermission(ctx context.Context, roleID int64, resource, action string) error {
	if err := s.requirePermission(ctx, ResourceRole, ActionUpdate); err != nil {
		return err
	}

	result, err := s.db.NewDelete().
		Model((*Permission)(nil)).
		Where("role_id = ?", roleID).
		Where("resource = ?", resource).
		Where("action = ?", action).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RemovePermission").Err(); err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbkit.WithErr1(err, "RemovePermission").Err()
	}
	if rows == 0 {
		return NewError(ErrNotFound, "permission not found").
			WithEntity(ResourceRole, roleID).
			WithGrant(resource, action)
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceRole, roleID, nil,
		map[string]any{"permission_removed": resource + ":" + action})
	return nil
}

// AssignRole grants a role to a user. Requires user:update. Assigning a role
// the user already holds surfaces as ErrConflict; the assignment is
// effective on the user's next permission check.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.requirePermission(ctx, ResourceUser, ActionUpdate); err != nil {
		return err
	}

	userExists, err := dbkit.Exists[User](ctx, s.db, whereID(userID))
	if err != nil {
		return dbkit.WithErr1(err, "AssignRole").Err()
	}
	if !userExists {
		return NewError(ErrNotFound, "user not found").WithUser(userID)
	}
	roleExists, err := dbkit.Exists[Role](ctx, s.db, whereID(roleID))
	if err != nil {
		return dbkit.WithErr1(err, "AssignRole").Err()
	}
	if !roleExists {
		return NewError(ErrNotFound, "role not found").WithEntity(ResourceRole, roleID)
	}

	assignment := &UserRole{
		UserID:    userID,
		RoleID:    roleID,
		CreatedAt: time.Now(),
	}
	result, err := s.db.NewInsert().Model(assignment).Exec(ctx)
	if err := dbkit.WithErr(result, err, "AssignRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "role already assigned").
				WithUser(userID).
				WithEntity(ResourceRole, roleID)
		}
		return err
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceUser, userID, nil,
		map[string]any{"role_assigned": roleID})
	return nil
}

// RevokeRole removes a role from a user. Requires user:update. Revoking a
// role the user does not hold surfaces as ErrNotFound.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID int64) error {
	if err := s.requirePermission(ctx, ResourceUser, ActionUpdate); err != nil {
		return err
	}

	result, err := s.db.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RevokeRole").Err(); err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbkit.WithErr1(err, "RevokeRole").Err()
	}
	if rows == 0 {
		return NewError(ErrNotFound, "role not assigned").
			WithUser(userID).
			WithEntity(ResourceRole, roleID)
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceUser, userID, nil,
		map[string]any{"role_revoked": roleID})
	return nil
}

// GetUserRoles returns the roles held by a user, permissions included.
func (s *Service) GetUserRoles(ctx context.Context, userID int64) ([]*Role, error) {
	user, err := s.getUserWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}
