package payments

import (
	"context"
	"testing"

	"github.com/onton/reconciler/src/utils/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newStoreTestDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.WalletCheck{})
	require.NoError(t, err)
	return db
}

func TestCheckedLtStartsUnset(t *testing.T) {
	store := NewStore(newStoreTestDb(t))

	lt, found, err := store.GetCheckedLt(context.Background(), "wallet-a")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, uint64(0), lt)
}

func TestCheckedLtAdvances(t *testing.T) {
	store := NewStore(newStoreTestDb(t))
	ctx := context.Background()

	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-a", 100))

	lt, found, err := store.GetCheckedLt(ctx, "wallet-a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(100), lt)

	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-a", 250))
	lt, _, err = store.GetCheckedLt(ctx, "wallet-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), lt)
}

func TestCheckedLtNeverMovesBackwards(t *testing.T) {
	store := NewStore(newStoreTestDb(t))
	ctx := context.Background()

	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-a", 250))

	// A stale writer loses
	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-a", 100))

	lt, _, err := store.GetCheckedLt(ctx, "wallet-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), lt)
}

func TestCheckedLtIsPerWallet(t *testing.T) {
	store := NewStore(newStoreTestDb(t))
	ctx := context.Background()

	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-a", 100))
	require.NoError(t, store.AdvanceCheckedLt(ctx, "wallet-b", 999))

	lt, _, err := store.GetCheckedLt(ctx, "wallet-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), lt)
}
