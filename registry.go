package accesskit

import (
	"context"
	"sort"
	"sync"

	"github.com/fernandezvara/dbkit"
)

// Registry holds the closed set of soft-deletable entity kinds the
// administration surface operates on. It is populated at startup and should
// be treated as immutable after initialization.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*KindDefinition
}

// KindDefinition binds an entity kind name to the typed operations the
// soft-delete administration needs. The closures are built by RegisterKind so
// the rest of the code never reflects over entity types.
type KindDefinition struct {
	name        string
	get         func(ctx context.Context, db dbkit.IDB, id int64) (SoftRecord, error)
	listDeleted func(ctx context.Context, db dbkit.IDB) ([]SoftRecord, error)
	save        func(ctx context.Context, db dbkit.IDB, rec SoftRecord) error
	purge       func(ctx context.Context, db dbkit.IDB, rec SoftRecord) error
}

// Name returns the kind name.
func (k *KindDefinition) Name() string {
	return k.name
}

// NewRegistry creates an empty kind registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]*KindDefinition),
	}
}

// RegisterKind registers an entity kind under a name. T must be a bun model
// composing SoftDeleteFields and exposing RecordID.
//
// Example:
//
//	registry := accesskit.NewRegistry()
//	accesskit.RegisterKind[accesskit.User](registry, "user")
//	accesskit.RegisterKind[Concept](registry, "concept")
func RegisterKind[T any, PT interface {
	*T
	SoftRecord
}](r *Registry, name string) *KindDefinition {
	def := &KindDefinition{
		name: name,

		get: func(ctx context.Context, db dbkit.IDB, id int64) (SoftRecord, error) {
			model := PT(new(T))
			err := dbkit.WithErr1(db.NewSelect().
				Model(model).
				WhereAllWithDeleted().
				Where("id = ?", id).
				Limit(1).
				Scan(ctx), "GetRecord").Err()
			if err != nil {
				if dbkit.IsNotFound(err) {
					return nil, NewError(ErrNotFound, "record not found").WithEntity(name, id)
				}
				return nil, err
			}
			return model, nil
		},

		listDeleted: func(ctx context.Context, db dbkit.IDB) ([]SoftRecord, error) {
			recs := new([]T)
			err := dbkit.WithErr1(db.NewSelect().
				Model(recs).
				WhereDeleted().
				Order("deleted_at DESC").
				Scan(ctx), "ListDeletedRecords").Err()
			if err != nil {
				return nil, err
			}
			out := make([]SoftRecord, len(*recs))
			for i := range *recs {
				out[i] = PT(&(*recs)[i])
			}
			return out, nil
		},

		save: func(ctx context.Context, db dbkit.IDB, rec SoftRecord) error {
			result, err := db.NewUpdate().
				Model(rec).
				Column("deleted_at", "deleted_by_id").
				WherePK().
				Exec(ctx)
			return dbkit.WithErr(result, err, "SaveRecordLifecycle").Err()
		},

		purge: func(ctx context.Context, db dbkit.IDB, rec SoftRecord) error {
			result, err := db.NewDelete().
				Model(rec).
				WherePK().
				ForceDelete().
				Exec(ctx)
			return dbkit.WithErr(result, err, "PurgeRecord").Err()
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[name] = def
	return def
}

// Kind returns the definition for a kind name, or nil if not registered.
func (r *Registry) Kind(name string) *KindDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kinds[name]
}

// ValidateKind checks that a kind is registered.
func (r *Registry) ValidateKind(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.kinds[name]; !exists {
		return NewError(ErrInvalidKind, "entity kind not registered").WithKind(name)
	}
	return nil
}

// Kinds returns all registered kind names, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
