package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *kv.SQLite {
	t.Helper()

	store, err := kv.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_ReadAbsentKey(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	_, found, err := store.Read(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLite_WriteReadDelete(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, kv.KeyPendingBills, `{"version":1,"items":[]}`))

	val, found, err := store.Read(ctx, kv.KeyPendingBills)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"version":1,"items":[]}`, val)

	// Overwrite replaces the previous value.
	require.NoError(t, store.Write(ctx, kv.KeyPendingBills, "v2"))
	val, _, err = store.Read(ctx, kv.KeyPendingBills)
	require.NoError(t, err)
	assert.Equal(t, "v2", val)

	require.NoError(t, store.Delete(ctx, kv.KeyPendingBills))
	_, found, err = store.Read(ctx, kv.KeyPendingBills)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting again is not an error.
	require.NoError(t, store.Delete(ctx, kv.KeyPendingBills))
}

func TestSQLite_KeysAreIndependent(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, kv.KeyCustomCategories, "cats"))
	require.NoError(t, store.Write(ctx, kv.KeyCurrentLedgerID, "ledger-1"))

	val, found, err := store.Read(ctx, kv.KeyCustomCategories)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cats", val)

	require.NoError(t, store.Delete(ctx, kv.KeyCustomCategories))

	val, found, err = store.Read(ctx, kv.KeyCurrentLedgerID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ledger-1", val)
}
