package records

import (
	"context"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// Repository persists records of every entity type in one table keyed by
// (entity_type, id).
type Repository interface {
	// Get returns the row including tombstones, or common.ErrorNotFound.
	Get(ctx context.Context, entityType, id string) (*models.StoredRecord, error)

	// Put inserts or replaces the row and assigns it the next seq, which is
	// returned and written back into rec.
	Put(ctx context.Context, rec *models.StoredRecord) (int64, error)

	// ListLive returns non-deleted rows ordered by creation time.
	ListLive(ctx context.Context, entityType string) ([]models.StoredRecord, error)

	// ListPending returns pending rows, tombstones included, oldest mutation first.
	ListPending(ctx context.Context, entityType string) ([]models.StoredRecord, error)

	// ListAll returns every row of the entity type.
	ListAll(ctx context.Context, entityType string) ([]models.StoredRecord, error)

	CountPending(ctx context.Context, entityType string) (int, error)

	// MarkSynced flips a live row to synced only if it still carries seq.
	MarkSynced(ctx context.Context, entityType, id string, seq int64) (bool, error)

	// MarkSent sets acked on a live row still carrying seq, before its push
	// goes out. Seq and status stay untouched.
	MarkSent(ctx context.Context, entityType, id string, seq int64) (bool, error)

	// Purge deletes the row only if it still carries seq.
	Purge(ctx context.Context, entityType, id string, seq int64) (bool, error)

	// Delete removes the row unconditionally.
	Delete(ctx context.Context, entityType, id string) (bool, error)

	// Clear removes every row of every entity type.
	Clear(ctx context.Context) error
}
