package store

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/client"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybrid_CreateOfflineThenSync(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, a.SyncStatus)
	assert.Zero(t, h.backend.callCount("upsert"))

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	assert.Zero(t, res.Failed)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, models.SyncStatusSynced, all[0].SyncStatus)

	w, ok := h.backend.get(models.EntityClients, a.ID)
	require.True(t, ok)
	assert.True(t, w.CreatedAt.Equal(a.CreatedAt))
	assert.JSONEq(t, `{"name":"Acme"}`, string(w.Data))

	n, err := h.hybrid.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err = h.hybrid.LastSynced(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHybrid_UpdateSyncedMarksPending(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	upd, err := h.hybrid.Update(ctx, a.ID, models.Set(models.Client{Name: "Acme Ltd"}))
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, upd.SyncStatus)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", all[0].Data.Name)
	assert.Equal(t, models.SyncStatusPendingPush, all[0].SyncStatus)
}

func TestHybrid_DeleteSyncedOffline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	b, err := h.hybrid.Create(ctx, models.Client{Name: "Bravo"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	existed, err := h.hybrid.Delete(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, existed)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := h.hybrid.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Purged)
	assert.Zero(t, res.Pulled)

	_, ok := h.backend.get(models.EntityClients, b.ID)
	assert.False(t, ok)
	assert.Empty(t, h.rows(t))
}

func TestHybrid_TombstoneNotResurrected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	b, err := h.hybrid.Create(ctx, models.Client{Name: "Bravo"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	_, err = h.hybrid.Delete(ctx, b.ID)
	require.NoError(t, err)

	h.backend.deleteErr[b.ID] = fmt.Errorf("%w: locked", client.ErrRejected)
	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Pulled)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	rows := h.rows(t)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Deleted)
	assert.Equal(t, models.SyncStatusPendingPush, rows[0].SyncStatus)
}

func TestHybrid_DeleteNeverPushed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	existed, err := h.hybrid.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, existed)

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Zero(t, res.Pushed+res.Purged)
	assert.Zero(t, h.backend.callCount("delete"))
	assert.Zero(t, h.backend.callCount("upsert"))
}

func TestHybrid_ReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for _, name := range []string{"A", "B", "C"} {
		_, err := h.hybrid.Create(ctx, models.Client{Name: name})
		require.NoError(t, err)
	}
	h.backend.put(models.EntityClients, rpc.Record{
		ID: "remote-1", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Data: clientJSON(t, models.Client{Name: "R"}),
	})

	first, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Pushed)
	assert.Equal(t, 1, first.Pulled)

	rowsBefore := h.rows(t)
	upserts := h.backend.callCount("upsert")

	second, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, second)
	assert.Equal(t, rowsBefore, h.rows(t))
	assert.Equal(t, upserts, h.backend.callCount("upsert"))
	assert.Equal(t, 4, h.backend.count(models.EntityClients))
}

func TestHybrid_LocalEditWinsOverRemoteEdit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	w, _ := h.backend.get(models.EntityClients, a.ID)
	w.Data = clientJSON(t, models.Client{Name: "Theirs"})
	w.UpdatedAt = w.UpdatedAt.Add(time.Hour)
	h.backend.put(models.EntityClients, w)

	_, err = h.hybrid.Update(ctx, a.ID, models.Set(models.Client{Name: "Mine"}))
	require.NoError(t, err)

	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	w, _ = h.backend.get(models.EntityClients, a.ID)
	assert.JSONEq(t, `{"name":"Mine"}`, string(w.Data))
	got, err := h.local.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Data.Name)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
}

func TestHybrid_PendingSurvivesRemoteDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	_, err = h.hybrid.Update(ctx, a.ID, models.Set(models.Client{Name: "Edited"}))
	require.NoError(t, err)
	h.backend.remove(models.EntityClients, a.ID)

	// the push fails for this row only, so pull runs with the row still pending
	h.backend.upsertErr[a.ID] = fmt.Errorf("%w: try later", client.ErrRejected)
	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Removed)

	got, err := h.local.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)
	assert.Equal(t, "Edited", got.Data.Name)

	delete(h.backend.upsertErr, a.ID)
	res, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)

	w, ok := h.backend.get(models.EntityClients, a.ID)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Edited"}`, string(w.Data))
}

func TestHybrid_RemoteChangesPulled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)
	b, err := h.hybrid.Create(ctx, models.Client{Name: "Bravo"})
	require.NoError(t, err)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	w, _ := h.backend.get(models.EntityClients, a.ID)
	w.Data = clientJSON(t, models.Client{Name: "Acme Remote"})
	w.UpdatedAt = w.UpdatedAt.Add(time.Minute)
	h.backend.put(models.EntityClients, w)
	h.backend.remove(models.EntityClients, b.ID)

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pulled)
	assert.Equal(t, 1, res.Removed)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Acme Remote", all[0].Data.Name)
}

func TestHybrid_LostAckDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)

	h.backend.lostAck[a.ID] = fmt.Errorf("%w: connection reset", client.ErrUnavailable)
	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.Error(t, err)
	assert.Equal(t, CodeNetworkFailure, CodeOf(err))
	assert.Equal(t, 1, res.Failed)

	got, err := h.local.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)
	assert.Equal(t, 1, h.backend.count(models.EntityClients))

	res, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, 1, h.backend.count(models.EntityClients))

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.SyncStatusSynced, all[0].SyncStatus)
}

func TestHybrid_DeleteAfterLostAckRemovesRemote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)

	h.backend.lostAck[a.ID] = fmt.Errorf("%w: connection reset", client.ErrUnavailable)
	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.Error(t, err)
	require.Equal(t, 1, h.backend.count(models.EntityClients))

	existed, err := h.hybrid.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Purged)
	assert.Zero(t, res.Pulled)

	_, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)

	assert.Zero(t, h.backend.count(models.EntityClients))
	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	row, err := h.local.Tracked(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestHybrid_NetworkFailureStopsPass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"unavailable", client.ErrUnavailable, CodeNetworkFailure},
		{"unauthorized", client.ErrUnauthorized, CodeAuthFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)

			a, err := h.hybrid.Create(ctx, models.Client{Name: "A"})
			require.NoError(t, err)
			_, err = h.hybrid.Create(ctx, models.Client{Name: "B"})
			require.NoError(t, err)
			h.backend.put(models.EntityClients, rpc.Record{ID: "remote-1", Data: clientJSON(t, models.Client{Name: "R"})})
			h.backend.upsertErr[a.ID] = tt.err

			res, err := h.hybrid.Reconcile(ctx, eligible)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, 1, res.Failed)
			assert.Zero(t, res.Pushed)
			assert.Equal(t, 1, h.backend.callCount("upsert"))
			assert.Zero(t, h.backend.callCount("list"))

			n, err := h.hybrid.PendingCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			_, ok, err := h.hybrid.LastSynced(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestHybrid_RejectedRowDoesNotStopPass(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "A"})
	require.NoError(t, err)
	b, err := h.hybrid.Create(ctx, models.Client{Name: "B"})
	require.NoError(t, err)
	h.backend.upsertErr[a.ID] = fmt.Errorf("%w: quota", client.ErrRejected)

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeRejected, CodeOf(res.Errors[0]))

	ga, err := h.local.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingPush, ga.SyncStatus)
	gb, err := h.local.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, gb.SyncStatus)
}

func TestHybrid_EditDuringPushStaysPending(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "v1"})
	require.NoError(t, err)

	h.backend.beforeUpsertReturn = func(id string) {
		h.backend.beforeUpsertReturn = nil
		_, err := h.local.Update(ctx, id, models.Set(models.Client{Name: "v2"}))
		require.NoError(t, err)
	}

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Superseded)
	assert.Zero(t, res.Pushed)

	got, err := h.local.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Data.Name)
	assert.Equal(t, models.SyncStatusPendingPush, got.SyncStatus)

	res, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	w, _ := h.backend.get(models.EntityClients, a.ID)
	assert.JSONEq(t, `{"name":"v2"}`, string(w.Data))
}

func TestHybrid_DeleteDuringPushRemovesRemote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.hybrid.Create(ctx, models.Client{Name: "Acme"})
	require.NoError(t, err)

	h.backend.beforeUpsertReturn = func(id string) {
		h.backend.beforeUpsertReturn = nil
		existed, err := h.local.Delete(ctx, id)
		require.NoError(t, err)
		require.True(t, existed)
	}

	res, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Superseded)
	assert.Zero(t, res.Pushed)
	assert.Zero(t, res.Pulled)

	all, err := h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	res, err = h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Purged)

	assert.Zero(t, h.backend.count(models.EntityClients))
	all, err = h.hybrid.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	n, err := h.hybrid.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHybrid_NotEligibleSkips(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.hybrid.Create(ctx, models.Client{Name: "A"})
	require.NoError(t, err)

	for _, sc := range []models.SyncContext{{}, {Enabled: true}, {UserID: "user-1"}} {
		res, err := h.hybrid.Reconcile(ctx, sc)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
	}
	assert.Zero(t, h.backend.callCount("upsert"))
	assert.Zero(t, h.backend.callCount("list"))

	n, err := h.hybrid.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHybrid_OwnerMismatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.hybrid.Reconcile(ctx, eligible)
	require.NoError(t, err)
	lists := h.backend.callCount("list")

	_, err = h.hybrid.Reconcile(ctx, models.SyncContext{Enabled: true, UserID: "user-2"})
	require.ErrorIs(t, err, ErrOwnerMismatch)
	assert.Equal(t, lists, h.backend.callCount("list"))
}

func TestHybrid_ConcurrentReconcileRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	gate := make(chan struct{})
	listed := make(chan struct{})
	h.backend.listGate = gate
	h.backend.listed = listed

	done := make(chan error, 1)
	go func() {
		_, err := h.hybrid.Reconcile(ctx, eligible)
		done <- err
	}()

	<-listed
	_, err := h.hybrid.Reconcile(ctx, eligible)
	require.ErrorIs(t, err, ErrReconcileInProgress)

	close(gate)
	require.NoError(t, <-done)
}

func TestHybrid_MutationHook(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.hybrid.Create(ctx, models.Client{Name: "A"})
	require.NoError(t, err)
	_, err = h.hybrid.Update(ctx, a.ID, models.Set(models.Client{Name: "B"}))
	require.NoError(t, err)
	_, err = h.hybrid.Update(ctx, "missing", models.Set(models.Client{Name: "B"}))
	require.NoError(t, err)
	_, err = h.hybrid.Delete(ctx, "missing")
	require.NoError(t, err)
	_, err = h.hybrid.Create(ctx, models.Client{})
	require.Error(t, err)
	_, err = h.hybrid.Delete(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{models.EntityClients, models.EntityClients, models.EntityClients}, h.hooks)
}

// Random local mutations interleaved with partially failing reconciles
// must keep the pending count equal to the pending rows on disk.
func TestHybrid_PendingCountTracksRows(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rnd := rand.New(rand.NewSource(7))

	var ids []string
	for step := 0; step < 200; step++ {
		switch op := rnd.Intn(10); {
		case op < 4 || len(ids) == 0:
			rec, err := h.hybrid.Create(ctx, models.Client{Name: fmt.Sprintf("n%d", step)})
			require.NoError(t, err)
			ids = append(ids, rec.ID)
		case op < 6:
			_, err := h.hybrid.Update(ctx, ids[rnd.Intn(len(ids))], models.Set(models.Client{Name: fmt.Sprintf("u%d", step)}))
			require.NoError(t, err)
		case op < 8:
			_, err := h.hybrid.Delete(ctx, ids[rnd.Intn(len(ids))])
			require.NoError(t, err)
		default:
			h.backend.mu.Lock()
			clear(h.backend.upsertErr)
			if len(ids) > 0 && rnd.Intn(2) == 0 {
				h.backend.upsertErr[ids[rnd.Intn(len(ids))]] = client.ErrRejected
			}
			h.backend.mu.Unlock()
			_, err := h.hybrid.Reconcile(ctx, eligible)
			require.NoError(t, err)
		}

		pending := 0
		for _, r := range h.rows(t) {
			if r.SyncStatus == models.SyncStatusPendingPush {
				pending++
			}
		}
		n, err := h.hybrid.PendingCount(ctx)
		require.NoError(t, err)
		require.Equal(t, pending, n, "step %d", step)
	}
}
