// Package accesskit provides the access-control and data-lifecycle core for
// multi-tenant applications: role-based permissions, soft deletion with
// restore, optimistic versioning and an append-only audit trail.
//
// # Core Concepts
//
// Grant: A (resource, action) pair such as ("document", "update"). The
// literal "*" is a wildcard for either side. A permission row attaches a
// grant to a role, with an informational scope ("own", "tenant", "global").
//
// Role: A named set of permission grants. A user may hold many roles; the
// effective permissions are the union. The role named "admin" is special:
// its holders pass every permission check.
//
// Lifecycle: Entities compose small capability structs by declaration:
// AuditFields (timestamps), SoftDeleteFields (reversible deletion),
// VersionFields (optimistic locking plus content hashing), TenantFields
// (tenant scoping). The soft-delete administration works uniformly over any
// registered entity kind.
//
// # Key Properties
//
//   - Fail-closed evaluation: unknown, soft-deleted and inactive users are
//     denied everything, regardless of their role assignments
//   - Union semantics: any matching grant across any held role allows
//   - Reversible deletion: soft-deleted rows disappear from default queries
//     but can be restored; permanent deletion requires a prior soft delete
//   - Append-only audit: every management mutation leaves a trail record;
//     retention cleanup is the only deletion path
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	// 1. Register the soft-deletable entity kinds (at application startup)
//	registry := accesskit.NewRegistry()
//	accesskit.RegisterKind[accesskit.User](registry, "user")
//
//	// 2. Create the service
//	db, err := dbkit.New(dbkit.Config{URL: databaseURL})
//	service := accesskit.NewService(registry, db)
//
//	// 3. Run migrations
//	accesskit.NewMigrationService(service).RunMigrations(ctx)
//
//	// 4. Create roles and grant permissions (as an admin actor)
//	ctx = accesskit.WithActorID(ctx, adminID)
//	editor, err := service.CreateRole(ctx, "editor", "can edit documents",
//	    accesskit.Grant{Resource: "document", Action: "read"},
//	    accesskit.Grant{Resource: "document", Action: "update"},
//	)
//	service.AssignRole(ctx, userID, editor.ID)
//
//	// 5. Check permissions
//	if service.CheckPermission(ctx, userID, "document", "update") {
//	    // allowed
//	}
//
// # Middleware Usage
//
//	mw := accesskit.NewMiddleware(service)
//
//	router.Use(mw.InjectAuditContext())
//	router.With(mw.RequirePermission("document", "update")).
//	    Put("/documents/{id}", updateDocumentHandler)
//	router.With(mw.RequireAdmin()).
//	    Get("/admin/deleted/{kind}", listDeletedHandler)
//
// # Soft Deletion
//
// Deleting through the administration surface marks the row instead of
// removing it:
//
//	service.SoftDeleteRecord(ctx, "user", userID)   // hidden from reads
//	service.RestoreRecord(ctx, "user", userID)      // visible again
//	service.PermanentDelete(ctx, "user", userID)    // only after soft delete
//
// Every transition is recorded in the audit trail with the acting user.
package accesskit
