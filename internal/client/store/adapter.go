package store

import (
	"context"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// Adapter is the CRUD contract shared by the local, remote and hybrid stores.
type Adapter[T any] interface {
	// GetAll returns live records; an empty slice when there are none.
	GetAll(ctx context.Context) ([]models.Record[T], error)
	// Create assigns the id and timestamps and stores data.
	Create(ctx context.Context, data T) (*models.Record[T], error)
	// Update applies patch to the record; (nil, nil) when id does not exist.
	Update(ctx context.Context, id string, patch models.Patch[T]) (*models.Record[T], error)
	// Delete reports whether a record existed.
	Delete(ctx context.Context, id string) (bool, error)
}

var (
	_ Adapter[models.Client] = (*LocalStore[models.Client])(nil)
	_ Adapter[models.Client] = (*RemoteStore[models.Client])(nil)
	_ Adapter[models.Client] = (*Hybrid[models.Client])(nil)
)
