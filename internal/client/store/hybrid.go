package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// Hybrid serves CRUD from the local store and reconciles with the remote
// store on demand.
type Hybrid[T models.Entity] struct {
	local  *LocalStore[T]
	remote RemoteFactory[T]
	opts   options
	logger logging.Logger

	reconciling sync.Mutex
}

func NewHybrid[T models.Entity](local *LocalStore[T], remote RemoteFactory[T], opts ...Option) *Hybrid[T] {
	o := buildOptions(opts)
	return &Hybrid[T]{
		local:  local,
		remote: remote,
		opts:   o,
		logger: o.logger.With("module", "hybrid", "entity", local.EntityType()),
	}
}

func (h *Hybrid[T]) EntityType() string {
	return h.local.EntityType()
}

func (h *Hybrid[T]) GetAll(ctx context.Context) ([]models.Record[T], error) {
	return h.local.GetAll(ctx)
}

func (h *Hybrid[T]) Create(ctx context.Context, data T) (*models.Record[T], error) {
	rec, err := h.local.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	h.mutated()
	return rec, nil
}

func (h *Hybrid[T]) Update(ctx context.Context, id string, patch models.Patch[T]) (*models.Record[T], error) {
	rec, err := h.local.Update(ctx, id, patch)
	if err != nil || rec == nil {
		return rec, err
	}
	h.mutated()
	return rec, nil
}

func (h *Hybrid[T]) Delete(ctx context.Context, id string) (bool, error) {
	existed, err := h.local.Delete(ctx, id)
	if err != nil || !existed {
		return existed, err
	}
	h.mutated()
	return true, nil
}

func (h *Hybrid[T]) PendingCount(ctx context.Context) (int, error) {
	return h.local.PendingCount(ctx)
}

func (h *Hybrid[T]) LastSynced(ctx context.Context) (time.Time, bool, error) {
	return h.local.LastSynced(ctx)
}

func (h *Hybrid[T]) mutated() {
	if h.opts.onMutation != nil {
		h.opts.onMutation(h.EntityType())
	}
}

// ReconcileResult summarises one Reconcile call.
type ReconcileResult struct {
	// Skipped is set when sync was not eligible; nothing was attempted.
	Skipped bool
	// Pushed counts upserts acknowledged and marked synced.
	Pushed int
	// Purged counts tombstones removed after the remote delete.
	Purged int
	// Superseded counts rows that changed locally while their push was
	// prepared or in flight; they stay pending.
	Superseded int
	// Failed counts rows whose push failed; they stay pending.
	Failed int
	// Pulled counts rows inserted or refreshed from the remote.
	Pulled int
	// Removed counts synced rows dropped because the remote no longer has them.
	Removed int
	// Errors holds the per-row push failures.
	Errors []error
}

// Reconcile pushes pending local changes, then pulls the remote list.
//
// Per-row push failures are counted in the result and do not stop the
// pass. A network or auth failure stops it early: the remaining rows stay
// pending, pull is skipped and the failure is returned.
func (h *Hybrid[T]) Reconcile(ctx context.Context, sc models.SyncContext) (ReconcileResult, error) {
	var res ReconcileResult

	if !sc.Eligible() {
		res.Skipped = true
		return res, nil
	}

	if !h.reconciling.TryLock() {
		return res, ErrReconcileInProgress
	}
	defer h.reconciling.Unlock()

	remote, err := h.remote(sc)
	if errors.Is(err, ErrNotEligible) {
		res.Skipped = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("remote store: %w", err)
	}

	if err := h.local.ClaimOwner(ctx, sc.UserID); err != nil {
		return res, err
	}

	if err := h.push(ctx, remote, &res); err != nil {
		h.logger.Warn(ctx, "push stopped", "error", err, "pushed", res.Pushed, "failed", res.Failed)
		return res, err
	}

	if err := h.pull(ctx, remote, &res); err != nil {
		h.logger.Warn(ctx, "pull failed", "error", err)
		return res, err
	}

	h.logger.Info(ctx, "reconciled",
		"pushed", res.Pushed, "purged", res.Purged, "superseded", res.Superseded,
		"failed", res.Failed, "pulled", res.Pulled, "removed", res.Removed)
	return res, nil
}

func (h *Hybrid[T]) push(ctx context.Context, remote Remote[T], res *ReconcileResult) error {
	pending, err := h.local.Pending(ctx)
	if err != nil {
		return err
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		// the row may have changed since Pending was read
		row, err := h.local.Tracked(ctx, p.ID)
		if err != nil {
			return err
		}
		if row == nil || row.SyncStatus != models.SyncStatusPendingPush {
			continue
		}

		var (
			acked   bool
			pushErr error
		)
		if row.Deleted {
			if _, pushErr = remote.Delete(ctx, row.ID); pushErr == nil {
				acked, err = h.local.PurgeTombstone(ctx, row.ID, row.Seq)
				if acked {
					res.Purged++
				}
			}
		} else {
			var rec models.Record[T]
			rec, pushErr = fromStored[T](*row)
			if pushErr == nil {
				// from here on the remote may hold the row, so a local
				// delete has to leave a tombstone
				var sent bool
				sent, err = h.local.MarkSent(ctx, row.ID, row.Seq)
				if err != nil {
					return err
				}
				if !sent {
					res.Superseded++
					h.logger.Debug(ctx, "pending row changed before push", "id", row.ID)
					continue
				}
				if _, pushErr = remote.Put(ctx, rec); pushErr == nil {
					acked, err = h.local.MarkSynced(ctx, row.ID, row.Seq)
					if acked {
						res.Pushed++
					}
				}
			}
		}
		if err != nil {
			return err
		}

		if pushErr != nil {
			res.Failed++
			res.Errors = append(res.Errors, pushErr)
			h.logger.Debug(ctx, "push failed", "id", row.ID, "error", pushErr)

			var se *SyncError
			if errors.As(pushErr, &se) && se.Halts() {
				return se
			}
			continue
		}

		if !acked {
			res.Superseded++
			h.logger.Debug(ctx, "pushed row changed locally", "id", row.ID)
		}
	}
	return nil
}

func (h *Hybrid[T]) pull(ctx context.Context, remote Remote[T], res *ReconcileResult) error {
	recs, err := remote.GetAll(ctx)
	if err != nil {
		return err
	}

	stats, err := h.local.ApplyRemote(ctx, recs, h.opts.now().UTC())
	if err != nil {
		return err
	}
	res.Pulled = stats.Pulled
	res.Removed = stats.Removed
	return nil
}
