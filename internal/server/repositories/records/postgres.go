// Package records provides the PostgreSQL-backed repository for user-owned
// records.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
)

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every record of entityType owned by userID, oldest first.
func (r *PostgresRepository) List(ctx context.Context, userID, entityType string) ([]*models.Record, error) {
	query := `SELECT entity_type, id, user_id, created_at, updated_at, data FROM records
		WHERE user_id = $1 AND entity_type = $2
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		var item models.Record
		if err := rows.Scan(&item.EntityType, &item.ID, &item.UserID, &item.CreatedAt, &item.UpdatedAt, &item.Data); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a single record. Records owned by another user are reported as
// common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID, entityType, id string) (*models.Record, error) {
	query := `SELECT entity_type, id, user_id, created_at, updated_at, data FROM records
		WHERE user_id = $1 AND entity_type = $2 AND id = $3`

	var item models.Record
	err := r.db.QueryRowContext(ctx, query, userID, entityType, id).
		Scan(&item.EntityType, &item.ID, &item.UserID, &item.CreatedAt, &item.UpdatedAt, &item.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

// Upsert writes record under its client-chosen id. An existing row is only
// replaced when it belongs to the same user; otherwise common.ErrorForbidden
// is returned. created_at of an existing row is preserved.
func (r *PostgresRepository) Upsert(ctx context.Context, record *models.Record) (*models.Record, error) {
	query := `
		INSERT INTO records (entity_type, id, user_id, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_type, id)
		DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			data = EXCLUDED.data
			WHERE records.user_id = EXCLUDED.user_id
		RETURNING entity_type, id, user_id, created_at, updated_at, data;
	`
	var item models.Record
	err := r.db.QueryRowContext(ctx, query,
		record.EntityType, record.ID, record.UserID, record.CreatedAt, record.UpdatedAt, record.Data).
		Scan(&item.EntityType, &item.ID, &item.UserID, &item.CreatedAt, &item.UpdatedAt, &item.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorForbidden
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

// Delete removes a record owned by userID and reports whether it existed.
func (r *PostgresRepository) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	query := `DELETE FROM records WHERE user_id = $1 AND entity_type = $2 AND id = $3`
	res, err := r.db.ExecContext(ctx, query, userID, entityType, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}
