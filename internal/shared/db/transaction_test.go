package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID    uint `gorm:"primaryKey"`
	State string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(&ledgerRow{}))
	return gdb
}

func newTestManager(gdb *gorm.DB) *TransactionManager {
	tm := NewTransactionManager(gdb)
	tm.backoff = time.Millisecond
	return tm
}

func TestRunInTransaction_CommitAndRollback(t *testing.T) {
	gdb := openTestDB(t)
	tm := newTestManager(gdb)
	ctx := context.Background()

	require.NoError(t, tm.RunInTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		return GetTxFromContext(ctx, gdb).Create(&ledgerRow{State: "pending"}).Error
	}))

	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, GetTxFromContext(ctx, gdb).Create(&ledgerRow{State: "expired"}).Error)
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")

	var count int64
	require.NoError(t, gdb.Model(&ledgerRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunInTransaction_RetriesDeadlockVictim(t *testing.T) {
	gdb := openTestDB(t)
	tm := newTestManager(gdb)

	calls := 0
	err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("Error 1213 (40001): Deadlock found when trying to get lock")
		}
		return GetTxFromContext(ctx, gdb).Create(&ledgerRow{State: "pending"}).Error
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunInTransaction_GivesUpAfterAttempts(t *testing.T) {
	tm := newTestManager(openTestDB(t))

	calls := 0
	err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("ERROR: deadlock detected (SQLSTATE 40P01)")
	})

	require.Error(t, err)
	assert.Equal(t, defaultTxAttempts, calls)
}

func TestRunInTransaction_NestedCallJoins(t *testing.T) {
	gdb := openTestDB(t)
	tm := newTestManager(gdb)

	calls := 0
	err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		outer := GetTxFromContext(ctx, gdb)
		return tm.RunInTransaction(ctx, func(inner context.Context) error {
			calls++
			assert.Same(t, outer, GetTxFromContext(inner, gdb))
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScopes(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, gdb.Create(&[]ledgerRow{{State: "pending"}, {State: "confirmed"}, {State: "paid_in_full"}}).Error)

	var rows []ledgerRow
	require.NoError(t, gdb.Scopes(StateIn("pending", "paid_in_full"), OrderByID(), LockForUpdate()).Find(&rows).Error)

	require.Len(t, rows, 2)
	assert.Equal(t, "pending", rows[0].State)
	assert.Equal(t, "paid_in_full", rows[1].State)
}
