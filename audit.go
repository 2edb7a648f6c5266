package accesskit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// AUDIT TRAIL
// ============================================================================

// Log appends an audit record. The trail is append-only: records are never
// updated, and retention cleanup is the only deletion path.
func (s *Service) Log(ctx context.Context, entry *AuditEntry) error {
	if entry == nil || entry.Action == "" {
		return NewError(ErrInvalidArgument, "audit action is required")
	}

	model := entry.ToModel(ctx)
	result, err := s.db.NewInsert().Model(model).Exec(ctx)
	return dbkit.WithErr(result, err, "AuditLog").Err()
}

// logEntityEvent records a lifecycle event on an entity. Audit failures do
// not fail the operation that triggered them; the mutation has already
// committed and losing one trail record is preferable to surfacing a
// spurious error.
func (s *Service) logEntityEvent(ctx context.Context, action, entityType string, entityID int64, oldData, newData map[string]any) {
	_ = s.Log(ctx, &AuditEntry{
		Action:      action,
		EntityType:  entityType,
		EntityID:    int64Ptr(entityID),
		OldData:     oldData,
		NewData:     newData,
		Description: describeEntityEvent(action, entityType, entityID),
	})
}

// describeEntityEvent renders a lifecycle event as a short human-readable
// sentence, e.g. "role 3 updated".
func describeEntityEvent(action, entityType string, entityID int64) string {
	var verb string
	switch action {
	case AuditActionEntityCreate:
		verb = "created"
	case AuditActionEntityUpdate:
		verb = "updated"
	case AuditActionEntityDelete:
		verb = "soft-deleted"
	case AuditActionEntityRestore:
		verb = "restored"
	case AuditActionEntityPurge:
		verb = "permanently deleted"
	default:
		verb = action
	}
	return fmt.Sprintf("%s %d %s", entityType, entityID, verb)
}

// LogLogin records a login attempt. status is "success" or "failure".
func (s *Service) LogLogin(ctx context.Context, userID int64, status string) error {
	description := fmt.Sprintf("user %d logged in", userID)
	if status == StatusFailure {
		description = fmt.Sprintf("user %d failed to log in", userID)
	}
	return s.Log(ctx, &AuditEntry{
		Action:      AuditActionLogin,
		UserID:      int64Ptr(userID),
		Status:      status,
		Description: description,
	})
}

// LogRegister records a registration.
func (s *Service) LogRegister(ctx context.Context, userID int64) error {
	return s.Log(ctx, &AuditEntry{
		Action:      AuditActionRegister,
		UserID:      int64Ptr(userID),
		Description: fmt.Sprintf("user %d registered", userID),
	})
}

// LogLogout records a logout.
func (s *Service) LogLogout(ctx context.Context, userID int64) error {
	return s.Log(ctx, &AuditEntry{
		Action:      AuditActionLogout,
		UserID:      int64Ptr(userID),
		Description: fmt.Sprintf("user %d logged out", userID),
	})
}

// GetLogs queries the audit trail with filtering and pagination, newest
// first. Returns the page plus the total count matching the filter.
func (s *Service) GetLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int, error) {
	if err := s.requirePermission(ctx, ResourceAdmin, ActionRead); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}

	var logs []AuditLog
	query := s.db.NewSelect().Model(&logs)

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at < ?", filter.Until)
	}

	total, err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(filter.Offset).
		ScanAndCount(ctx)
	if err := dbkit.WithErr1(err, "GetAuditLogs").Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// GetUserActivity summarizes a user's audit activity over the last N days as
// per-action counts, most frequent first.
func (s *Service) GetUserActivity(ctx context.Context, userID int64, days int) ([]ActivityCount, error) {
	if err := s.requirePermission(ctx, ResourceAdmin, ActionRead); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var activity []ActivityCount
	err := s.db.NewSelect().
		Model((*AuditLog)(nil)).
		Column("action").
		ColumnExpr("count(*) AS count").
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Group("action").
		Order("count DESC").
		Scan(ctx, &activity)
	if err := dbkit.WithErr1(err, "GetUserActivity").Err(); err != nil {
		return nil, err
	}
	return activity, nil
}

// ActivityCount is one row of a per-action activity summary.
type ActivityCount struct {
	Action string `bun:"action"`
	Count  int64  `bun:"count"`
}

// CleanupOldLogs deletes audit records older than the given number of days
// and returns how many were removed. days <= 0 falls back to the configured
// retention horizon. This is a hard delete; the audit table does not
// soft-delete.
func (s *Service) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	if err := s.requirePermission(ctx, ResourceAdmin, ActionDelete); err != nil {
		return 0, err
	}
	if days <= 0 {
		days = s.config.RetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	result, err := s.db.NewDelete().
		Model((*AuditLog)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "CleanupOldLogs").Err(); err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
