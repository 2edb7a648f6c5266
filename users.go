package accesskit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// USER STORE
// ============================================================================

// CreateUser persists a new user. This is an ungated primitive: registration
// flows call it before the user has any identity to check against. Username
// and email must be unique; violations surface as ErrConflict.
func (s *Service) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, NewError(ErrInvalidArgument, "user is required")
	}
	if strings.TrimSpace(user.Username) == "" {
		return nil, NewError(ErrInvalidArgument, "username is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, NewError(ErrInvalidArgument, "email is required")
	}
	if user.TenantID == 0 {
		return nil, NewError(ErrInvalidArgument, "tenant ID is required")
	}

	user.Stamp(time.Now())
	user.IncrementVersion()
	user.ContentHash = ContentHash(user)

	result, err := s.db.NewInsert().Model(user).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "username or email already exists")
		}
		return nil, err
	}

	s.logEntityEvent(ctx, AuditActionEntityCreate, ResourceUser, user.ID, nil, userSnapshot(user))
	return user, nil
}

// GetUser retrieves an active user by ID, with roles loaded. Soft-deleted
// users are not visible through this path.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	user := new(User)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(user).
		Relation("Roles").
		Where("u.id = ?", userID).
		Scan(ctx), "GetUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves an active user by username, with roles loaded.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user := new(User)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(user).
		Relation("Roles").
		Where("u.username = ?", username).
		Scan(ctx), "GetUserByUsername").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns active users for a tenant, ordered by username.
func (s *Service) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	if err := s.requirePermission(ctx, ResourceUser, ActionRead); err != nil {
		return nil, err
	}

	var users []User
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(&users).
		Where("u.tenant_id = ?", tenantID).
		Order("username ASC").
		Scan(ctx), "ListUsers").Err()
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser persists profile changes to a user under optimistic locking.
// expectedVersion must match the stored version; a mismatch means another
// writer got there first and surfaces as ErrVersionMismatch without touching
// the row. On success the version is bumped and the content hash recomputed.
func (s *Service) UpdateUser(ctx context.Context, user *User, expectedVersion int64) (*User, error) {
	if err := s.requirePermission(ctx, ResourceUser, ActionUpdate); err != nil {
		return nil, err
	}
	if user == nil || user.ID == 0 {
		return nil, NewError(ErrInvalidArgument, "user with ID is required")
	}
	if strings.TrimSpace(user.Username) == "" {
		return nil, NewError(ErrInvalidArgument, "username is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, NewError(ErrInvalidArgument, "email is required")
	}

	before, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	user.Stamp(time.Now())
	user.Version = expectedVersion
	user.IncrementVersion()
	user.ContentHash = ContentHash(user)

	result, err := s.db.NewUpdate().
		Model(user).
		Column("username", "email", "credential_hash", "is_active", "is_verified",
			"updated_at", "version", "content_hash").
		Where("id = ?", user.ID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "username or email already exists").WithUser(user.ID)
		}
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, dbkit.WithErr1(err, "UpdateUser").Err()
	}
	if rows == 0 {
		// The row exists (loaded above) so this can only be a stale version.
		return nil, NewError(ErrVersionMismatch, "user was modified concurrently").WithUser(user.ID)
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceUser, user.ID,
		userSnapshot(before), userSnapshot(user))
	return user, nil
}

// SetUserActive flips the activity flag. Deactivation takes effect on the
// next permission check; there is no session state to invalidate.
func (s *Service) SetUserActive(ctx context.Context, userID int64, active bool) error {
	if err := s.requirePermission(ctx, ResourceUser, ActionUpdate); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	before := userSnapshot(user)
	expectedVersion := user.Version

	user.IsActive = active
	user.Stamp(time.Now())
	user.IncrementVersion()
	user.ContentHash = ContentHash(user)

	result, err := s.db.NewUpdate().
		Model(user).
		Column("is_active", "updated_at", "version", "content_hash").
		Where("id = ?", userID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "SetUserActive").Err(); err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbkit.WithErr1(err, "SetUserActive").Err()
	}
	if rows == 0 {
		// The row exists (loaded above) so this can only be a stale version.
		return NewError(ErrVersionMismatch, "user was modified concurrently").WithUser(userID)
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceUser, userID,
		before, userSnapshot(user))
	return nil
}

// AnonymizeUser scrubs a user's personal data in place while keeping the row,
// so existing audit references stay resolvable. The user must already be
// soft-deleted; anonymizing a live account would silently lock it out.
func (s *Service) AnonymizeUser(ctx context.Context, userID int64) error {
	if err := s.requirePermission(ctx, ResourceAdmin, ActionUpdate); err != nil {
		return err
	}

	user := new(User)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(user).
		WhereAllWithDeleted().
		Where("u.id = ?", userID).
		Scan(ctx), "AnonymizeUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return err
	}
	if !user.IsDeleted() {
		return NewError(ErrConflict, "user must be soft-deleted before anonymization").WithUser(userID)
	}
	before := userSnapshot(user)

	user.Anonymize()
	user.Stamp(time.Now())
	user.IncrementVersion()
	user.ContentHash = ContentHash(user)

	result, err := s.db.NewUpdate().
		Model(user).
		Column("username", "email", "credential_hash", "is_active", "is_verified",
			"updated_at", "version", "content_hash").
		Where("id = ?", userID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "AnonymizeUser").Err(); err != nil {
		return err
	}

	s.logEntityEvent(ctx, AuditActionEntityUpdate, ResourceUser, userID,
		before, userSnapshot(user))
	return nil
}
