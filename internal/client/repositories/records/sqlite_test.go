package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

var t0 = time.Date(2026, 1, 10, 8, 0, 0, 123, time.UTC)

func row(entityType, id string, status models.SyncStatus) *models.StoredRecord {
	return &models.StoredRecord{
		EntityType: entityType,
		ID:         id,
		CreatedAt:  t0,
		UpdatedAt:  t0,
		SyncStatus: status,
		Data:       []byte(`{"name":"` + id + `"}`),
	}
}

func TestPut_InsertThenUpdate_BumpsSeq(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	seq1, err := r.Put(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq1)
	assert.Equal(t, seq1, a.Seq)

	a.Data = []byte(`{"name":"a2"}`)
	a.UpdatedAt = t0.Add(time.Minute)
	seq2, err := r.Put(ctx, a)
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)

	got, err := r.Get(ctx, "clients", "a")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a2"}`, string(got.Data))
	assert.True(t, t0.Equal(got.CreatedAt))
	assert.True(t, t0.Add(time.Minute).Equal(got.UpdatedAt))
	assert.Equal(t, seq2, got.Seq)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)
}

func TestPut_RejectsUnknownStatus(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Put(context.Background(), row("clients", "a", "local_only"))
	require.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), "clients", "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_ScopedByEntityType(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Put(ctx, row("clients", "same", models.SyncStatusSynced))
	require.NoError(t, err)

	_, err = r.Get(ctx, "projects", "same")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListLive_SkipsTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusSynced)
	b := row("clients", "b", models.SyncStatusPendingPush)
	b.CreatedAt = t0.Add(time.Second)
	gone := row("clients", "gone", models.SyncStatusPendingPush)
	gone.Deleted = true
	other := row("projects", "p", models.SyncStatusSynced)

	for _, rec := range []*models.StoredRecord{b, a, gone, other} {
		_, err := r.Put(ctx, rec)
		require.NoError(t, err)
	}

	live, err := r.ListLive(ctx, "clients")
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "a", live[0].ID)
	assert.Equal(t, "b", live[1].ID)

	all, err := r.ListAll(ctx, "clients")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListLive_EmptyIsNotNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	live, err := r.ListLive(context.Background(), "clients")
	require.NoError(t, err)
	assert.NotNil(t, live)
	assert.Empty(t, live)
}

func TestListPending_SeqOrderIncludesTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	first := row("clients", "first", models.SyncStatusPendingPush)
	second := row("clients", "second", models.SyncStatusPendingPush)
	synced := row("clients", "synced", models.SyncStatusSynced)
	for _, rec := range []*models.StoredRecord{first, second, synced} {
		_, err := r.Put(ctx, rec)
		require.NoError(t, err)
	}

	// touching "first" again moves it behind "second"
	first.Deleted = true
	_, err := r.Put(ctx, first)
	require.NoError(t, err)

	pending, err := r.ListPending(ctx, "clients")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "second", pending[0].ID)
	assert.Equal(t, "first", pending[1].ID)
	assert.True(t, pending[1].Deleted)

	n, err := r.CountPending(ctx, "clients")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMarkSynced_CompareAndSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	oldSeq, err := r.Put(ctx, a)
	require.NoError(t, err)

	// a newer local edit lands while the push of oldSeq is in flight
	a.Data = []byte(`{"name":"newer"}`)
	newSeq, err := r.Put(ctx, a)
	require.NoError(t, err)

	ok, err := r.MarkSynced(ctx, "clients", "a", oldSeq)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.Get(ctx, "clients", "a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)
	assert.False(t, got.Acked)

	ok, err = r.MarkSynced(ctx, "clients", "a", newSeq)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = r.Get(ctx, "clients", "a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
	assert.True(t, got.Acked)
	assert.Equal(t, newSeq, got.Seq)
}

func TestMarkSynced_IgnoresTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	a.Deleted = true
	seq, err := r.Put(ctx, a)
	require.NoError(t, err)

	ok, err := r.MarkSynced(ctx, "clients", "a", seq)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurge_CompareAndSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	a.Deleted = true
	seq, err := r.Put(ctx, a)
	require.NoError(t, err)

	ok, err := r.Purge(ctx, "clients", "a", seq+100)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Purge(ctx, "clients", "a", seq)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.Get(ctx, "clients", "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_And_Clear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Put(ctx, row("clients", "a", models.SyncStatusSynced))
	require.NoError(t, err)
	_, err = r.Put(ctx, row("projects", "b", models.SyncStatusSynced))
	require.NoError(t, err)

	ok, err := r.Delete(ctx, "clients", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Delete(ctx, "clients", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Clear(ctx))
	all, err := r.ListAll(ctx, "projects")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "clients", "a")
	assert.ErrorContains(t, err, "failed to get record clients/a")

	_, err = r.Put(ctx, row("clients", "a", models.SyncStatusSynced))
	assert.ErrorContains(t, err, "failed to put record clients/a")

	_, err = r.ListLive(ctx, "clients")
	assert.ErrorContains(t, err, "failed to select records")

	_, err = r.CountPending(ctx, "clients")
	assert.ErrorContains(t, err, "failed to count pending records")

	_, err = r.MarkSynced(ctx, "clients", "a", 1)
	assert.ErrorContains(t, err, "failed to mark record clients/a synced")

	_, err = r.MarkSent(ctx, "clients", "a", 1)
	assert.ErrorContains(t, err, "failed to mark record clients/a sent")

	_, err = r.Purge(ctx, "clients", "a", 1)
	assert.ErrorContains(t, err, "failed to purge record clients/a")

	assert.ErrorContains(t, r.Clear(ctx), "failed to clear records")
}

func TestMarkSent_KeepsSeqAndStatus(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	seq, err := r.Put(ctx, a)
	require.NoError(t, err)

	ok, err := r.MarkSent(ctx, "clients", "a", seq)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.Get(ctx, "clients", "a")
	require.NoError(t, err)
	assert.True(t, got.Acked)
	assert.Equal(t, seq, got.Seq)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)

	// MarkSynced for the sent version still succeeds
	ok, err = r.MarkSynced(ctx, "clients", "a", seq)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkSent(ctx, "clients", "missing", seq)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkSent_CompareAndSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := row("clients", "a", models.SyncStatusPendingPush)
	oldSeq, err := r.Put(ctx, a)
	require.NoError(t, err)

	a.Deleted = true
	_, err = r.Put(ctx, a)
	require.NoError(t, err)

	ok, err := r.MarkSent(ctx, "clients", "a", oldSeq)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.Get(ctx, "clients", "a")
	require.NoError(t, err)
	assert.False(t, got.Acked)
}
