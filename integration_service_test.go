package accesskit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHealthService tests database health reporting
func TestHealthService(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}

	hs := NewHealthService(env.Service)

	assert.NoError(t, hs.Ping(env.Ctx))
	assert.True(t, hs.IsHealthy(env.Ctx))

	status := hs.Health(env.Ctx)
	assert.True(t, status.Healthy)

	stats := hs.GetPoolStats()
	assert.GreaterOrEqual(t, stats.InUse, 0)
}

// TestPoolService tests connection pool configuration
func TestPoolService(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}

	ps := NewPoolService(env.Service)

	assert.NoError(t, ps.ConfigureConnectionPool(PoolConfig{
		MaxOpenConnections: 10,
		MaxIdleConnections: 2,
	}))

	config, err := ps.GetConnectionPoolConfig()
	assert.NoError(t, err)
	assert.Equal(t, 10, config.MaxOpenConnections)
	assert.Equal(t, 2, config.MaxIdleConnections)

	assert.NoError(t, ps.ResetConnectionPool())

	config, err = ps.GetConnectionPoolConfig()
	assert.NoError(t, err)
	assert.Equal(t, DefaultPoolConfig(), *config)
}

// TestMigrationService tests idempotent migration runs
func TestMigrationService(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}

	ms := NewMigrationService(env.Service)

	// SetupIntegration already migrated; a second run applies nothing.
	status, err := ms.RunMigrations(env.Ctx)
	assert.NoError(t, err)
	assert.Empty(t, status.Applied)
}

// TestRetentionSweep tests batch deletion of expired audit records
func TestRetentionSweep(t *testing.T) {
	env := SetupIntegration(t)
	if env == nil {
		return
	}
	ctx := env.Ctx

	svc := env.Service.WithDB(env.DB)
	svc.config.RetentionDays = 7
	svc.config.CleanupBatchSize = 2

	for i := 0; i < 5; i++ {
		old := &AuditLog{Action: "stale_event", Status: StatusSuccess}
		old.CreatedAt = time.Now().AddDate(0, 0, -30)
		_, err := env.DB.NewInsert().Model(old).Exec(ctx)
		assert.NoError(t, err)
	}

	deleted, err := svc.sweepOnce(ctx)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(5), "all expired batches are swept")

	logs, _, err := env.Service.GetLogs(ctx, NewAuditLogFilter().WithAction("stale_event"))
	assert.NoError(t, err)
	assert.Empty(t, logs)
}
