package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRoleCRUD tests role creation, update and deletion
func TestRoleCRUD(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	t.Run("create with grants", func(t *testing.T) {
		name := uniqueName("editor")
		role, err := env.Service.CreateRole(ctx, name, "edits documents",
			Grant{Resource: "document", Action: "read"},
			Grant{Resource: "document", Action: "update", Scope: ScopeTenant},
		)
		assert.NoError(t, err)
		assert.Equal(t, name, role.Name)
		assert.Equal(t, int64(1), role.Version)
		assert.Len(t, role.Permissions, 2)

		loaded, err := env.Service.GetRoleByName(ctx, name)
		assert.NoError(t, err)
		assert.Equal(t, role.ID, loaded.ID)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		name := uniqueName("dup")
		_, err := env.Service.CreateRole(ctx, name, "")
		assert.NoError(t, err)

		_, err = env.Service.CreateRole(ctx, name, "")
		assert.Error(t, err)
		assert.True(t, IsConflict(err))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := env.Service.CreateRole(ctx, "  ", "")
		assert.Error(t, err)
		assert.True(t, IsInvalidArgument(err))
	})

	t.Run("update bumps version", func(t *testing.T) {
		role, err := env.Service.CreateRole(ctx, uniqueName("r"), "before")
		assert.NoError(t, err)

		updated, err := env.Service.UpdateRole(ctx, role.ID, role.Name, "after", role.Version)
		assert.NoError(t, err)
		assert.Equal(t, "after", updated.Description)
		assert.Equal(t, role.Version+1, updated.Version)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		role, err := env.Service.CreateRole(ctx, uniqueName("r"), "")
		assert.NoError(t, err)

		_, err = env.Service.UpdateRole(ctx, role.ID, role.Name, "x", role.Version)
		assert.NoError(t, err)

		_, err = env.Service.UpdateRole(ctx, role.ID, role.Name, "y", role.Version)
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrVersionMismatch)
		assert.True(t, IsConflict(err))
	})

	t.Run("delete", func(t *testing.T) {
		role, err := env.Service.CreateRole(ctx, uniqueName("doomed"), "")
		assert.NoError(t, err)

		assert.NoError(t, env.Service.DeleteRole(ctx, role.ID))

		_, err = env.Service.GetRole(ctx, role.ID)
		assert.True(t, IsNotFound(err))

		err = env.Service.DeleteRole(ctx, role.ID)
		assert.True(t, IsNotFound(err))
	})
}

// TestPermissionManagement tests adding and removing grants on a role
func TestPermissionManagement(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	role, err := env.Service.CreateRole(ctx, uniqueName("perms"), "")
	assert.NoError(t, err)

	t.Run("add permission", func(t *testing.T) {
		updated, err := env.Service.AddPermission(ctx, role.ID, "document", "read", "")
		assert.NoError(t, err)
		assert.Len(t, updated.Permissions, 1)
		assert.Equal(t, ScopeOwn, updated.Permissions[0].Scope)
	})

	t.Run("duplicate pair conflicts", func(t *testing.T) {
		_, err := env.Service.AddPermission(ctx, role.ID, "document", "read", ScopeTenant)
		assert.Error(t, err)
		assert.True(t, IsConflict(err))
	})

	t.Run("remove permission", func(t *testing.T) {
		assert.NoError(t, env.Service.RemovePermission(ctx, role.ID, "document", "read"))

		err := env.Service.RemovePermission(ctx, role.ID, "document", "read")
		assert.True(t, IsNotFound(err))
	})
}

// TestRoleAssignment tests assigning and revoking roles
func TestRoleAssignment(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	user, err := seedUser(ctx, env.DB, env.Tenant.ID, true)
	assert.NoError(t, err)
	role, err := env.Service.CreateRole(ctx, uniqueName("assignee"), "",
		Grant{Resource: "note", Action: "read"})
	assert.NoError(t, err)

	t.Run("assign", func(t *testing.T) {
		assert.NoError(t, env.Service.AssignRole(ctx, user.ID, role.ID))
		assert.True(t, env.Service.CheckPermission(ctx, user.ID, "note", "read"))
	})

	t.Run("double assignment conflicts", func(t *testing.T) {
		err := env.Service.AssignRole(ctx, user.ID, role.ID)
		assert.Error(t, err)
		assert.True(t, IsConflict(err))
	})

	t.Run("assign unknown user", func(t *testing.T) {
		err := env.Service.AssignRole(ctx, 999999999, role.ID)
		assert.True(t, IsNotFound(err))
	})

	t.Run("assign unknown role", func(t *testing.T) {
		err := env.Service.AssignRole(ctx, user.ID, 999999999)
		assert.True(t, IsNotFound(err))
	})

	t.Run("revoke", func(t *testing.T) {
		assert.NoError(t, env.Service.RevokeRole(ctx, user.ID, role.ID))
		assert.False(t, env.Service.CheckPermission(ctx, user.ID, "note", "read"))
	})

	t.Run("revoke unassigned role", func(t *testing.T) {
		err := env.Service.RevokeRole(ctx, user.ID, role.ID)
		assert.True(t, IsNotFound(err))
	})
}

// TestDeleteRoleRevokesHolders verifies holders lose a deleted role's grants
// on their next check
func TestDeleteRoleRevokesHolders(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	user, err := seedUser(ctx, env.DB, env.Tenant.ID, true)
	assert.NoError(t, err)
	role, err := env.Service.CreateRole(ctx, uniqueName("shortlived"), "",
		Grant{Resource: "report", Action: "read"})
	assert.NoError(t, err)
	assert.NoError(t, env.Service.AssignRole(ctx, user.ID, role.ID))
	assert.True(t, env.Service.CheckPermission(ctx, user.ID, "report", "read"))

	assert.NoError(t, env.Service.DeleteRole(ctx, role.ID))
	assert.False(t, env.Service.CheckPermission(ctx, user.ID, "report", "read"))

	roles, err := env.Service.GetUserRoles(ctx, user.ID)
	assert.NoError(t, err)
	for _, r := range roles {
		assert.NotEqual(t, role.ID, r.ID)
	}
}

// TestTransactionRollback verifies a failed transaction leaves no partial
// state behind
func TestTransactionRollback(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	name := uniqueName("ghost")
	err := env.Service.Transaction(ctx, func(tx *Service) error {
		if _, err := tx.CreateRole(ctx, name, ""); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	_, err = env.Service.GetRoleByName(ctx, name)
	assert.True(t, IsNotFound(err))

	metrics := env.Service.GetTransactionMetrics()
	assert.GreaterOrEqual(t, metrics.TotalTransactions, int64(1))
	assert.GreaterOrEqual(t, metrics.FailedTransactions, int64(1))
}
