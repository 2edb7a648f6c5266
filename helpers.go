package accesskit

import (
	"github.com/uptrace/bun"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func whereID(id int64) func(q *bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

// userSnapshot captures the auditable state of a user for before/after
// payloads. Credential material is never written to the audit trail.
func userSnapshot(u *User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"username":    u.Username,
		"email":       u.Email,
		"is_active":   u.IsActive,
		"is_verified": u.IsVerified,
		"tenant_id":   u.TenantID,
		"version":     u.Version,
	}
}

// roleSnapshot captures the auditable state of a role.
func roleSnapshot(r *Role) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"name":        r.Name,
		"description": r.Description,
		"version":     r.Version,
	}
}
