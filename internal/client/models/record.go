// Package models defines the client-side record envelope, the sync
// metadata carried with it and the domain entities stored inside.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrValidation is wrapped by every domain validation failure.
var ErrValidation = errors.New("validation failed")

// SyncStatus marks whether the local copy of a record has been
// acknowledged by the remote store.
type SyncStatus string

const (
	SyncStatusSynced      SyncStatus = "synced"
	SyncStatusPendingPush SyncStatus = "pending_push"
)

func (s SyncStatus) Valid() bool {
	return s == SyncStatusSynced || s == SyncStatusPendingPush
}

// Entity is implemented by every domain type the data layer stores.
// Methods must work on the zero value: EntityType names the namespace
// records of this type live in.
type Entity interface {
	EntityType() string
	Validate() error
}

// Record is what callers see: the domain data plus its identity and
// sync state.
type Record[T any] struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SyncStatus SyncStatus `json:"sync_status"`
	Data       T          `json:"data"`
}

// Pending reports whether the record holds changes not yet confirmed remotely.
func (r Record[T]) Pending() bool {
	return r.SyncStatus == SyncStatusPendingPush
}

// StoredRecord is the row kept by the local store. Deleted, Acked and Seq
// never leave the data layer.
type StoredRecord struct {
	EntityType string
	ID         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	SyncStatus SyncStatus
	// Deleted marks a tombstone kept until the remote confirms the delete.
	Deleted bool
	// Acked is set once the remote may hold any version of the record: a
	// push was sent, even if its confirmation got lost, or a pull delivered it.
	Acked bool
	// Seq grows with every local write; push order and acknowledgement use it.
	Seq  int64
	Data []byte
}

// SyncContext is the eligibility snapshot a reconciliation runs under.
type SyncContext struct {
	Enabled bool
	UserID  string
}

// Eligible is true only when sync is enabled and a user is known.
func (c SyncContext) Eligible() bool {
	return c.Enabled && c.UserID != ""
}

// Patch mutates a copy of the domain data during update.
type Patch[T any] func(*T) error

// Set replaces the data wholesale.
func Set[T any](v T) Patch[T] {
	return func(dst *T) error {
		*dst = v
		return nil
	}
}

// JSONPatch merges a partial JSON object into the data: fields present in
// raw overwrite, absent fields are kept. Unknown fields are rejected.
func JSONPatch[T any](raw []byte) Patch[T] {
	return func(dst *T) error {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return fmt.Errorf("%w: patch must be a JSON object", ErrValidation)
		}
		return decodeStrict(trimmed, dst)
	}
}

// Decode parses a domain document, rejecting unknown fields and trailing data.
func Decode[T any](raw []byte) (T, error) {
	var v T
	if err := decodeStrict(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

func decodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrValidation)
	}
	return nil
}
