package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// PERMISSION EVALUATION
// ============================================================================

// CheckPermission decides whether a user may perform action on resource.
// It fails closed: an unknown, soft-deleted or inactive user is denied
// regardless of roles; a user holding the "admin" role is allowed without
// further checks; otherwise the first matching grant across the user's roles
// wins. Pure read, no side effects, never returns an error to the caller.
func (s *Service) CheckPermission(ctx context.Context, userID int64, resource, action string) bool {
	user, err := s.getUserWithRoles(ctx, userID)
	if err != nil {
		return false
	}
	return NewChecker(user).Allows(resource, action)
}

// GetUserPermissions flattens all grants across all of the user's roles for
// introspection and UI. Duplicates are preserved, not deduplicated. An
// unknown user yields an empty list, not an error.
func (s *Service) GetUserPermissions(ctx context.Context, userID int64) ([]Grant, error) {
	user, err := s.getUserWithRoles(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return []Grant{}, nil
		}
		return nil, err
	}
	return NewChecker(user).Grants(), nil
}

// CreatePermission inserts a new grant on a role. This is the ungated
// primitive: it validates the identifiers and the role's existence but does
// not check for duplicates; AddPermission is the gated, duplicate-checked
// management operation.
func (s *Service) CreatePermission(ctx context.Context, roleID int64, resource, action, scope string) (*Permission, error) {
	if err := ValidateGrant(resource, action); err != nil {
		return nil, err
	}
	if scope == "" {
		scope = ScopeOwn
	}

	exists, err := dbkit.Exists[Role](ctx, s.db, whereID(roleID))
	if err != nil {
		return nil, dbkit.WithErr1(err, "CreatePermission").Err()
	}
	if !exists {
		return nil, NewError(ErrNotFound, "role not found").WithEntity(ResourceRole, roleID)
	}

	perm := &Permission{
		RoleID:   roleID,
		Resource: resource,
		Action:   action,
		Scope:    scope,
	}
	perm.Stamp(time.Now())

	result, err := s.db.NewInsert().Model(perm).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreatePermission").Err(); err != nil {
		return nil, err
	}
	return perm, nil
}

// GetChecker loads a user and builds a Checker for repeated in-memory checks.
func (s *Service) GetChecker(ctx context.Context, userID int64) (*Checker, error) {
	user, err := s.getUserWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewChecker(user), nil
}

// GetCheckerFromContext builds a Checker for the user ID carried in context.
func (s *Service) GetCheckerFromContext(ctx context.Context) (*Checker, error) {
	userID := GetUserID(ctx)
	if userID == 0 {
		return nil, NewError(ErrUnauthorized, "no user ID in context")
	}
	return s.GetChecker(ctx, userID)
}

// requirePermission gates a management operation on the actor in context.
// A missing actor and a failed check are both authorization errors; the
// operation they guard is never partially applied.
func (s *Service) requirePermission(ctx context.Context, resource, action string) error {
	actorID := GetActorID(ctx)
	if actorID == 0 {
		return NewError(ErrNoActorID, "actor ID required").WithGrant(resource, action)
	}
	if !s.CheckPermission(ctx, actorID, resource, action) {
		return NewError(ErrUnauthorized, "missing required permission").
			WithGrant(resource, action).
			WithActor(actorID)
	}
	return nil
}

// getUserWithRoles loads a user with roles and their permissions. Default
// selects exclude soft-deleted users, so a deleted user surfaces as NotFound
// here and as a denial in the engine.
func (s *Service) getUserWithRoles(ctx context.Context, userID int64) (*User, error) {
	user := new(User)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(user).
		Relation("Roles").
		Relation("Roles.Permissions").
		Where("u.id = ?", userID).
		Scan(ctx), "GetUserWithRoles").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return nil, err
	}
	return user, nil
}
