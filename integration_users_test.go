package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCreateUser tests the ungated user primitive
func TestCreateUser(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	t.Run("create", func(t *testing.T) {
		user := &User{
			Username:       uniqueName("ada"),
			Email:          uniqueName("ada") + "@example.com",
			CredentialHash: "x",
			IsActive:       true,
		}
		user.TenantID = env.Tenant.ID

		created, err := env.Service.CreateUser(ctx, user)
		assert.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, int64(1), created.Version)
		assert.NotEmpty(t, created.ContentHash)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		name := uniqueName("dup")
		first := &User{Username: name, Email: name + "@example.com", CredentialHash: "x"}
		first.TenantID = env.Tenant.ID
		_, err := env.Service.CreateUser(ctx, first)
		assert.NoError(t, err)

		second := &User{Username: name, Email: name + "-2@example.com", CredentialHash: "x"}
		second.TenantID = env.Tenant.ID
		_, err = env.Service.CreateUser(ctx, second)
		assert.Error(t, err)
		assert.True(t, IsConflict(err))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := env.Service.CreateUser(ctx, nil)
		assert.True(t, IsInvalidArgument(err))

		u := &User{Email: "x@example.com"}
		u.TenantID = env.Tenant.ID
		_, err = env.Service.CreateUser(ctx, u)
		assert.True(t, IsInvalidArgument(err))

		u2 := &User{Username: uniqueName("u"), Email: "y@example.com"}
		_, err = env.Service.CreateUser(ctx, u2)
		assert.True(t, IsInvalidArgument(err), "tenant is required")
	})
}

// TestUpdateUserOptimisticLocking tests concurrent-write protection
func TestUpdateUserOptimisticLocking(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	user, err := seedUser(ctx, env.DB, env.Tenant.ID, true)
	assert.NoError(t, err)

	t.Run("matching version succeeds and bumps", func(t *testing.T) {
		user.Email = uniqueName("new") + "@example.com"
		updated, err := env.Service.UpdateUser(ctx, user, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)

		reloaded, err := env.Service.GetUser(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), reloaded.Version)
		assert.Equal(t, ContentHash(reloaded), reloaded.ContentHash)
		assert.False(t, IsModified(reloaded))
	})

	t.Run("stale version rejected without touching the row", func(t *testing.T) {
		reloaded, err := env.Service.GetUser(ctx, user.ID)
		assert.NoError(t, err)

		reloaded.Email = uniqueName("stale") + "@example.com"
		_, err = env.Service.UpdateUser(ctx, reloaded, 1)
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrVersionMismatch)

		fresh, err := env.Service.GetUser(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), fresh.Version)
		assert.NotEqual(t, reloaded.Email, fresh.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost := &User{ID: 999999999, Username: "ghost", Email: "ghost@example.com"}
		_, err := env.Service.UpdateUser(ctx, ghost, 1)
		assert.True(t, IsNotFound(err))
	})
}

// TestSetUserActive tests that the activity flag participates in versioning
func TestSetUserActive(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	user, err := seedUser(ctx, env.DB, env.Tenant.ID, true)
	assert.NoError(t, err)

	assert.NoError(t, env.Service.SetUserActive(ctx, user.ID, false))

	reloaded, err := env.Service.GetUser(ctx, user.ID)
	assert.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, int64(2), reloaded.Version)
	assert.False(t, IsModified(reloaded), "stored hash reflects the flag change")

	// Each flip is its own versioned write.
	assert.NoError(t, env.Service.SetUserActive(ctx, user.ID, true))
	reloaded, err = env.Service.GetUser(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, reloaded.IsActive)
	assert.Equal(t, int64(3), reloaded.Version)
}

// TestListUsers tests tenant-scoped listing
func TestListUsers(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	tenant, err := seedTenant(ctx, env.DB)
	assert.NoError(t, err)

	u1, err := seedUser(ctx, env.DB, tenant.ID, true)
	assert.NoError(t, err)
	u2, err := seedUser(ctx, env.DB, tenant.ID, true)
	assert.NoError(t, err)

	users, err := env.Service.ListUsers(ctx, tenant.ID)
	assert.NoError(t, err)
	assert.Len(t, users, 2)

	t.Run("soft-deleted users excluded", func(t *testing.T) {
		assert.NoError(t, env.Service.SoftDeleteRecord(ctx, "user", u1.ID))

		users, err := env.Service.ListUsers(ctx, tenant.ID)
		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, u2.ID, users[0].ID)
	})
}

// TestGetUserByUsername tests lookup by unique username
func TestGetUserByUsername(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	user, err := seedUser(ctx, env.DB, env.Tenant.ID, true)
	assert.NoError(t, err)

	found, err := env.Service.GetUserByUsername(ctx, user.Username)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = env.Service.GetUserByUsername(ctx, uniqueName("missing"))
	assert.True(t, IsNotFound(err))
}
