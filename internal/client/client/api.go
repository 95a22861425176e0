package client

import (
	"context"

	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
)

// RecordsAPI is the remote record store as seen by the data layer. Every
// call is scoped to the user behind the current access token.
type RecordsAPI interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, entityType string) ([]rpc.Record, error)
	// Get returns ErrNotFound when the id is unknown to the backend.
	Get(ctx context.Context, entityType, id string) (*rpc.Record, error)
	// Upsert stores the record under its own id and returns the stored copy.
	Upsert(ctx context.Context, entityType string, rec rpc.Record) (*rpc.Record, error)
	// Delete reports whether the record existed.
	Delete(ctx context.Context, entityType, id string) (bool, error)
}

var _ RecordsAPI = (*GRPCClient)(nil)
