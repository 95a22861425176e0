// Package metadata stores device-scoped key/value state of the local
// store: the device owner, per-entity last-synced times and the access
// token.
package metadata

import (
	"context"
	"time"
)

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	GetTime(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Well-known keys.
const (
	KeyOwnerUserID      = "owner_user_id"
	KeyAccessToken      = "access_token"
	keyLastSyncedPrefix = "last_synced:"
)

// LastSyncedKey is the key holding the last completed pull for an entity type.
func LastSyncedKey(entityType string) string {
	return keyLastSyncedPrefix + entityType
}

// LastSyncedPrefix matches every last-synced key.
func LastSyncedPrefix() string {
	return keyLastSyncedPrefix
}
