package accesskit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// The lifecycle kernel: small embeddable structs that entities compose by
// declaration. Each capability is orthogonal; an entity picks the ones it
// needs and the rest of the system works against the interfaces below.

// AuditFields stamps creation and last-modification times.
type AuditFields struct {
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Stamp sets the timestamps for a persisted mutation. CreatedAt is only set
// the first time.
func (f *AuditFields) Stamp(now time.Time) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
}

// SoftDeleteFields marks a record as deleted without removing the row.
// The bun soft_delete tag makes default selects exclude deleted rows.
type SoftDeleteFields struct {
	DeletedAt   time.Time `bun:"deleted_at,soft_delete,nullzero"`
	DeletedByID *int64    `bun:"deleted_by_id"`
}

// IsDeleted reports whether the record is soft-deleted.
func (f *SoftDeleteFields) IsDeleted() bool {
	return !f.DeletedAt.IsZero()
}

// MarkDeleted transitions the record to the deleted state. Soft-deleting an
// already-deleted record is rejected so the original deletion timestamp and
// actor are never overwritten.
func (f *SoftDeleteFields) MarkDeleted(actorID int64, at time.Time) error {
	if f.IsDeleted() {
		return NewError(ErrAlreadyDeleted, "record is already soft-deleted")
	}
	f.DeletedAt = at
	if actorID != 0 {
		f.DeletedByID = &actorID
	}
	return nil
}

// ClearDeleted transitions the record back to the active state. Restoring an
// active record is rejected.
func (f *SoftDeleteFields) ClearDeleted() error {
	if !f.IsDeleted() {
		return NewError(ErrNotDeleted, "record is not soft-deleted")
	}
	f.DeletedAt = time.Time{}
	f.DeletedByID = nil
	return nil
}

// VersionFields provides optimistic locking and change detection.
type VersionFields struct {
	Version     int64  `bun:"version,notnull,default:1"`
	ContentHash string `bun:"content_hash"`
}

// IncrementVersion bumps the version for a persisted mutation. New records
// start at 1.
func (f *VersionFields) IncrementVersion() {
	if f.Version == 0 {
		f.Version = 1
		return
	}
	f.Version++
}

// RecordVersion returns the stored version.
func (f *VersionFields) RecordVersion() int64 {
	return f.Version
}

// RecordHash returns the stored content hash.
func (f *VersionFields) RecordHash() string {
	return f.ContentHash
}

// TenantFields scopes a record to one tenant. Every query path for a
// tenant-scoped entity must filter by TenantID.
type TenantFields struct {
	TenantID int64 `bun:"tenant_id,notnull"`
}

// SoftRecord is implemented by entities that compose SoftDeleteFields plus an
// identity accessor. It is the unit the soft-delete administration works on.
type SoftRecord interface {
	RecordID() int64
	IsDeleted() bool
	MarkDeleted(actorID int64, at time.Time) error
	ClearDeleted() error
}

// Versioned is implemented by entities that compose VersionFields.
type Versioned interface {
	RecordVersion() int64
	RecordHash() string
}

// Anonymizer is implemented by entities that can scrub personal data while
// keeping the row for referential integrity.
type Anonymizer interface {
	Anonymize()
}

// Columns never included in a content hash: identity, timestamps, lifecycle
// and the hash/version bookkeeping itself.
var hashExcludedColumns = map[string]struct{}{
	"id":            {},
	"created_at":    {},
	"updated_at":    {},
	"deleted_at":    {},
	"deleted_by_id": {},
	"version":       {},
	"content_hash":  {},
}

// ContentHash computes a deterministic hash over the persisted fields of a
// model, excluding identity/timestamp/version/hash columns and relations.
// The canonical rule is fixed: non-nil scalar fields are rendered as
// "column=value" lines, sorted by column name, joined with newlines and
// hashed with SHA-256. Changing this rule makes stored hashes incomparable,
// so it must stay stable across versions.
func ContentHash(model any) string {
	fields := make(map[string]string)
	rv := reflect.Indirect(reflect.ValueOf(model))
	if rv.Kind() == reflect.Struct {
		collectHashFields(rv, fields)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// IsModified reports whether the in-memory state of a versioned entity
// differs from the last persisted state. Recomputing the hash and comparing
// it to the stored one is the only source of truth for dirtiness.
func IsModified(model Versioned) bool {
	return ContentHash(model) != model.RecordHash()
}

func collectHashFields(rv reflect.Value, fields map[string]string) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}

		fv := rv.Field(i)
		tag := sf.Tag.Get("bun")

		// Embedded capability structs contribute their own columns.
		if sf.Anonymous {
			if sf.Type.Kind() == reflect.Struct && sf.Type != reflect.TypeOf(time.Time{}) {
				if sf.Type.String() != "bun.BaseModel" {
					collectHashFields(fv, fields)
				}
			}
			continue
		}

		// Relations are not persisted columns of this table.
		if strings.Contains(tag, "rel:") || strings.Contains(tag, "m2m:") {
			continue
		}

		column := columnName(sf.Name, tag)
		if _, excluded := hashExcludedColumns[column]; excluded {
			continue
		}

		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}

		switch fv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
			continue
		case reflect.Struct:
			t, ok := fv.Interface().(time.Time)
			if !ok {
				continue
			}
			if t.IsZero() {
				continue
			}
			fields[column] = t.UTC().Format(time.RFC3339Nano)
		default:
			fields[column] = fmt.Sprintf("%v", fv.Interface())
		}
	}
}

// columnName resolves the persisted column for a struct field: the first
// segment of the bun tag, or the snake_cased field name when the tag leaves
// it implicit.
func columnName(fieldName, tag string) string {
	if tag != "" && tag != "-" {
		name := tag
		if idx := strings.IndexByte(name, ','); idx >= 0 {
			name = name[:idx]
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fieldName)
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
