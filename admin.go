package accesskit

import (
	"context"
	"time"
)

// ============================================================================
// SOFT-DELETE ADMINISTRATION
// ============================================================================

// SoftDeleteRecord marks a record of a registered kind as deleted, recording
// the acting user and timestamp. Requires <kind>:delete. The row stays in
// place; default queries stop seeing it. Deleting an already-deleted record
// surfaces as ErrAlreadyDeleted.
func (s *Service) SoftDeleteRecord(ctx context.Context, kind string, id int64) error {
	def := s.registry.Kind(kind)
	if def == nil {
		return NewError(ErrInvalidKind, "entity kind not registered").WithKind(kind)
	}
	if err := s.requirePermission(ctx, kind, ActionDelete); err != nil {
		return err
	}

	rec, err := def.get(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := rec.MarkDeleted(GetActorID(ctx), time.Now()); err != nil {
		return err
	}
	if err := def.save(ctx, s.db, rec); err != nil {
		return err
	}

	s.logEntityEvent(ctx, AuditActionEntityDelete, kind, id, nil, nil)
	return nil
}

// RestoreRecord brings a soft-deleted record back to the active state.
// Requires admin:update. Restoring a record that is not deleted surfaces as
// ErrNotDeleted.
func (s *Service) RestoreRecord(ctx context.Context, kind string, id int64) error {
	def := s.registry.Kind(kind)
	if def == nil {
		return NewError(ErrInvalidKind, "entity kind not registered").WithKind(kind)
	}
	if err := s.requirePermission(ctx, ResourceAdmin, ActionUpdate); err != nil {
		return err
	}

	rec, err := def.get(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := rec.ClearDeleted(); err != nil {
		return err
	}
	if err := def.save(ctx, s.db, rec); err != nil {
		return err
	}

	s.logEntityEvent(ctx, AuditActionEntityRestore, kind, id, nil, nil)
	return nil
}

// PermanentDelete removes a record's row for good. Requires admin:delete.
// The record must already be soft-deleted; the two-step dance is what makes
// accidental permanent loss hard.
func (s *Service) PermanentDelete(ctx context.Context, kind string, id int64) error {
	def := s.registry.Kind(kind)
	if def == nil {
		return NewError(ErrInvalidKind, "entity kind not registered").WithKind(kind)
	}
	if err := s.requirePermission(ctx, ResourceAdmin, ActionDelete); err != nil {
		return err
	}

	rec, err := def.get(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !rec.IsDeleted() {
		return NewError(ErrConflict, "record must be soft-deleted first").WithEntity(kind, id)
	}
	if err := def.purge(ctx, s.db, rec); err != nil {
		return err
	}

	s.logEntityEvent(ctx, AuditActionEntityPurge, kind, id, nil, nil)
	return nil
}

// DeletedRecords lists the soft-deleted records of a kind, most recently
// deleted first. Requires admin:read.
func (s *Service) DeletedRecords(ctx context.Context, kind string) ([]SoftRecord, error) {
	def := s.registry.Kind(kind)
	if def == nil {
		return nil, NewError(ErrInvalidKind, "entity kind not registered").WithKind(kind)
	}
	if err := s.requirePermission(ctx, ResourceAdmin, ActionRead); err != nil {
		return nil, err
	}
	return def.listDeleted(ctx, s.db)
}
