package accesskit

import "time"

// AuditLogFilter provides options for filtering audit log queries.
// Zero values mean "no filter" for that predicate.
type AuditLogFilter struct {
	// Filter by the acting user (the actor recorded on the row)
	UserID int64

	// Filter by action name
	Action string

	// Filter by affected entity
	EntityType string
	EntityID   int64

	// Filter by outcome status ("success", "failure", "error")
	Status string

	// Filter by time range on the creation timestamp
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithUser sets the acting-user filter.
func (f AuditLogFilter) WithUser(userID int64) AuditLogFilter {
	f.UserID = userID
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action string) AuditLogFilter {
	f.Action = action
	return f
}

// WithEntity sets the entity type and ID filters.
func (f AuditLogFilter) WithEntity(entityType string, entityID int64) AuditLogFilter {
	f.EntityType = entityType
	f.EntityID = entityID
	return f
}

// WithEntityType sets only the entity type filter.
func (f AuditLogFilter) WithEntityType(entityType string) AuditLogFilter {
	f.EntityType = entityType
	return f
}

// WithStatus sets the status filter.
func (f AuditLogFilter) WithStatus(status string) AuditLogFilter {
	f.Status = status
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditLogFilter) WithSince(since time.Time) AuditLogFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditLogFilter) WithUntil(until time.Time) AuditLogFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f AuditLogFilter) WithLimit(limit int) AuditLogFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f AuditLogFilter) WithOffset(offset int) AuditLogFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
