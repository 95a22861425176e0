package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
)

// LocalStore keeps records of one entity type in the device database.
type LocalStore[T models.Entity] struct {
	db         *sql.DB
	entityType string
	opts       options
}

func NewLocalStore[T models.Entity](db *sql.DB, opts ...Option) *LocalStore[T] {
	var zero T
	return &LocalStore[T]{
		db:         db,
		entityType: zero.EntityType(),
		opts:       buildOptions(opts),
	}
}

func (s *LocalStore[T]) EntityType() string {
	return s.entityType
}

func (s *LocalStore[T]) GetAll(ctx context.Context) ([]models.Record[T], error) {
	rows, err := records.NewSQLiteRepository(s.db).ListLive(ctx, s.entityType)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.entityType, err)
	}

	out := make([]models.Record[T], 0, len(rows))
	for _, row := range rows {
		rec, err := fromStored[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns a live record or common.ErrorNotFound.
func (s *LocalStore[T]) Get(ctx context.Context, id string) (*models.Record[T], error) {
	row, err := records.NewSQLiteRepository(s.db).Get(ctx, s.entityType, id)
	if err != nil {
		return nil, err
	}
	if row.Deleted {
		return nil, common.ErrorNotFound
	}
	rec, err := fromStored[T](*row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *LocalStore[T]) Create(ctx context.Context, data T) (*models.Record[T], error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	body, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	now := s.opts.timestamp()
	row := &models.StoredRecord{
		EntityType: s.entityType,
		ID:         s.opts.newID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPendingPush,
		Data:       body,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		if _, err := repo.Get(ctx, s.entityType, row.ID); err == nil {
			return fmt.Errorf("id %s already in use", row.ID)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		_, err := repo.Put(ctx, row)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.entityType, err)
	}

	rec := models.Record[T]{
		ID:         row.ID,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		SyncStatus: row.SyncStatus,
		Data:       data,
	}
	return &rec, nil
}

// Update re-marks the record pending_push whatever its previous status.
func (s *LocalStore[T]) Update(ctx context.Context, id string, patch models.Patch[T]) (*models.Record[T], error) {
	var out *models.Record[T]

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		row, err := repo.Get(ctx, s.entityType, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if row.Deleted {
			return nil
		}

		data, err := decodeData[T](row.Data)
		if err != nil {
			return err
		}
		if err := patch(&data); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		body, err := encodeData(data)
		if err != nil {
			return err
		}

		row.Data = body
		row.UpdatedAt = s.opts.timestamp()
		row.SyncStatus = models.SyncStatusPendingPush
		if _, err := repo.Put(ctx, row); err != nil {
			return err
		}

		out = &models.Record[T]{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
			SyncStatus: row.SyncStatus,
			Data:       data,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", s.entityType, id, err)
	}
	return out, nil
}

// Delete purges a record that was never sent to the remote. Any other
// record becomes a pending tombstone so a later pull cannot resurrect it.
func (s *LocalStore[T]) Delete(ctx context.Context, id string) (bool, error) {
	existed := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		row, err := repo.Get(ctx, s.entityType, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if row.Deleted {
			return nil
		}
		existed = true

		if !row.Acked {
			_, err := repo.Delete(ctx, s.entityType, id)
			return err
		}

		row.Deleted = true
		row.SyncStatus = models.SyncStatusPendingPush
		row.UpdatedAt = s.opts.timestamp()
		_, err = repo.Put(ctx, row)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", s.entityType, id, err)
	}
	return existed, nil
}

// Pending lists rows awaiting push, tombstones included, oldest mutation first.
func (s *LocalStore[T]) Pending(ctx context.Context) ([]models.StoredRecord, error) {
	return records.NewSQLiteRepository(s.db).ListPending(ctx, s.entityType)
}

// Tracked returns the current row including tombstones, or nil when absent.
func (s *LocalStore[T]) Tracked(ctx context.Context, id string) (*models.StoredRecord, error) {
	row, err := records.NewSQLiteRepository(s.db).Get(ctx, s.entityType, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return row, err
}

// PendingCount counts pending rows, tombstones included.
func (s *LocalStore[T]) PendingCount(ctx context.Context) (int, error) {
	return records.NewSQLiteRepository(s.db).CountPending(ctx, s.entityType)
}

// MarkSynced acknowledges the row version identified by seq. It returns
// false when the row changed since that version was read.
func (s *LocalStore[T]) MarkSynced(ctx context.Context, id string, seq int64) (bool, error) {
	return records.NewSQLiteRepository(s.db).MarkSynced(ctx, s.entityType, id, seq)
}

// MarkSent records that the row version identified by seq is about to be
// pushed. It returns false when the row changed since that version was read.
func (s *LocalStore[T]) MarkSent(ctx context.Context, id string, seq int64) (bool, error) {
	return records.NewSQLiteRepository(s.db).MarkSent(ctx, s.entityType, id, seq)
}

// PurgeTombstone removes a tombstone whose remote delete was confirmed.
func (s *LocalStore[T]) PurgeTombstone(ctx context.Context, id string, seq int64) (bool, error) {
	return records.NewSQLiteRepository(s.db).Purge(ctx, s.entityType, id, seq)
}

// LastSynced returns the time of the last completed pull.
func (s *LocalStore[T]) LastSynced(ctx context.Context) (time.Time, bool, error) {
	return metadata.NewSQLiteRepository(s.db).GetTime(ctx, metadata.LastSyncedKey(s.entityType))
}

// ClaimOwner binds the device data to userID on first sync and rejects
// any other user afterwards.
func (s *LocalStore[T]) ClaimOwner(ctx context.Context, userID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := metadata.NewSQLiteRepository(tx)
		owner, err := meta.Get(ctx, metadata.KeyOwnerUserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return meta.Set(ctx, metadata.KeyOwnerUserID, []byte(userID))
		}
		if string(owner) != userID {
			return fmt.Errorf("%w: device owned by %s", ErrOwnerMismatch, owner)
		}
		return nil
	})
}

// PullStats counts what ApplyRemote changed.
type PullStats struct {
	Pulled  int
	Removed int
}

// ApplyRemote merges the full remote list into the local store in one
// transaction and records syncedAt as the last completed pull.
//
// Remote rows are inserted or overwrite local synced copies. Pending rows
// and tombstones are left alone. Synced rows absent remotely are removed.
func (s *LocalStore[T]) ApplyRemote(ctx context.Context, remote []models.Record[T], syncedAt time.Time) (PullStats, error) {
	var stats PullStats

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		local, err := repo.ListAll(ctx, s.entityType)
		if err != nil {
			return err
		}

		byID := make(map[string]models.StoredRecord, len(local))
		for _, row := range local {
			byID[row.ID] = row
		}

		seen := make(map[string]struct{}, len(remote))
		for _, r := range remote {
			seen[r.ID] = struct{}{}

			body, err := encodeData(r.Data)
			if err != nil {
				return err
			}

			if l, ok := byID[r.ID]; ok {
				if l.Deleted || l.SyncStatus == models.SyncStatusPendingPush {
					continue
				}
				if sameContent(l, r, body) {
					continue
				}
			}

			row := &models.StoredRecord{
				EntityType: s.entityType,
				ID:         r.ID,
				CreatedAt:  r.CreatedAt.UTC(),
				UpdatedAt:  r.UpdatedAt.UTC(),
				SyncStatus: models.SyncStatusSynced,
				Acked:      true,
				Data:       body,
			}
			if _, err := repo.Put(ctx, row); err != nil {
				return err
			}
			stats.Pulled++
		}

		for _, l := range local {
			if _, ok := seen[l.ID]; ok {
				continue
			}
			if l.Deleted || l.SyncStatus != models.SyncStatusSynced {
				continue
			}
			if _, err := repo.Delete(ctx, s.entityType, l.ID); err != nil {
				return err
			}
			stats.Removed++
		}

		return metadata.NewSQLiteRepository(tx).SetTime(ctx, metadata.LastSyncedKey(s.entityType), syncedAt)
	})
	if err != nil {
		return PullStats{}, fmt.Errorf("apply remote %s: %w", s.entityType, err)
	}
	return stats, nil
}

func sameContent[T any](l models.StoredRecord, r models.Record[T], body []byte) bool {
	return l.CreatedAt.Equal(r.CreatedAt) &&
		l.UpdatedAt.Equal(r.UpdatedAt) &&
		bytes.Equal(l.Data, body)
}
