package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `entity_type, id, created_at, updated_at, sync_status, deleted, acked, seq, data`

func (r *SQLiteRepository) Get(ctx context.Context, entityType, id string) (*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE entity_type = ? AND id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, entityType, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", entityType, id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, rec *models.StoredRecord) (int64, error) {
	if !rec.SyncStatus.Valid() {
		return 0, fmt.Errorf("failed to put record %s/%s: bad sync status %q", rec.EntityType, rec.ID, rec.SyncStatus)
	}

	query := `INSERT INTO records (entity_type, id, created_at, updated_at, sync_status, deleted, acked, seq, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records), ?)
		ON CONFLICT(entity_type, id) DO UPDATE SET
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			deleted = excluded.deleted,
			acked = excluded.acked,
			seq = excluded.seq,
			data = excluded.data
		RETURNING seq`

	var seq int64
	err := r.db.QueryRowContext(ctx, query,
		rec.EntityType, rec.ID,
		toNanos(rec.CreatedAt), toNanos(rec.UpdatedAt),
		string(rec.SyncStatus), rec.Deleted, rec.Acked, rec.Data,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to put record %s/%s: %w", rec.EntityType, rec.ID, err)
	}
	rec.Seq = seq
	return seq, nil
}

func (r *SQLiteRepository) ListLive(ctx context.Context, entityType string) ([]models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records
		WHERE entity_type = ? AND deleted = 0
		ORDER BY created_at, id`
	return r.list(ctx, query, entityType)
}

func (r *SQLiteRepository) ListPending(ctx context.Context, entityType string) ([]models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records
		WHERE entity_type = ? AND sync_status = 'pending_push'
		ORDER BY seq`
	return r.list(ctx, query, entityType)
}

func (r *SQLiteRepository) ListAll(ctx context.Context, entityType string) ([]models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE entity_type = ? ORDER BY seq`
	return r.list(ctx, query, entityType)
}

func (r *SQLiteRepository) CountPending(ctx context.Context, entityType string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE entity_type = ? AND sync_status = 'pending_push'`, entityType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, entityType, id string, seq int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE records SET sync_status = 'synced', acked = 1
		WHERE entity_type = ? AND id = ? AND seq = ? AND deleted = 0`, entityType, id, seq)
	if err != nil {
		return false, fmt.Errorf("failed to mark record %s/%s synced: %w", entityType, id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) MarkSent(ctx context.Context, entityType, id string, seq int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE records SET acked = 1
		WHERE entity_type = ? AND id = ? AND seq = ? AND deleted = 0`, entityType, id, seq)
	if err != nil {
		return false, fmt.Errorf("failed to mark record %s/%s sent: %w", entityType, id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) Purge(ctx context.Context, entityType, id string, seq int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE entity_type = ? AND id = ? AND seq = ?`, entityType, id, seq)
	if err != nil {
		return false, fmt.Errorf("failed to purge record %s/%s: %w", entityType, id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, entityType, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE entity_type = ? AND id = ?`, entityType, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s/%s: %w", entityType, id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.StoredRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := make([]models.StoredRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.StoredRecord, error) {
	var (
		rec              models.StoredRecord
		created, updated int64
		status           string
		deleted, acked   bool
	)
	if err := s.Scan(&rec.EntityType, &rec.ID, &created, &updated, &status, &deleted, &acked, &rec.Seq, &rec.Data); err != nil {
		return nil, err
	}
	rec.CreatedAt = fromNanos(created)
	rec.UpdatedAt = fromNanos(updated)
	rec.SyncStatus = models.SyncStatus(status)
	rec.Deleted = deleted
	rec.Acked = acked
	return &rec, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
