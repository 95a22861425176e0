package records

import (
	"context"

	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID, entityType string) ([]*models.Record, error)
	Get(ctx context.Context, userID, entityType, id string) (*models.Record, error)
	Upsert(ctx context.Context, record *models.Record) (*models.Record, error)
	Delete(ctx context.Context, userID, entityType, id string) (bool, error)
}
