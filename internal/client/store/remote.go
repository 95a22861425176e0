package store

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/bizkeeper/internal/client/client"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// Remote is the remote side of reconciliation: an Adapter plus an upsert
// that keeps the caller's id and timestamps.
type Remote[T any] interface {
	Adapter[T]
	Put(ctx context.Context, rec models.Record[T]) (*models.Record[T], error)
}

// RemoteFactory binds a Remote to the eligibility snapshot of one
// reconciliation attempt.
type RemoteFactory[T any] func(sc models.SyncContext) (Remote[T], error)

// RemoteStore talks to the hosted backend for one entity type. Every
// failure is a *SyncError.
type RemoteStore[T models.Entity] struct {
	api        client.RecordsAPI
	entityType string
	userID     string
	opts       options
}

func NewRemoteStore[T models.Entity](api client.RecordsAPI, sc models.SyncContext, opts ...Option) (*RemoteStore[T], error) {
	if !sc.Eligible() {
		return nil, ErrNotEligible
	}
	var zero T
	return &RemoteStore[T]{
		api:        api,
		entityType: zero.EntityType(),
		userID:     sc.UserID,
		opts:       buildOptions(opts),
	}, nil
}

// NewRemoteFactory returns a RemoteFactory building RemoteStores over api.
func NewRemoteFactory[T models.Entity](api client.RecordsAPI, opts ...Option) RemoteFactory[T] {
	return func(sc models.SyncContext) (Remote[T], error) {
		rs, err := NewRemoteStore[T](api, sc, opts...)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
}

func (s *RemoteStore[T]) UserID() string {
	return s.userID
}

func (s *RemoteStore[T]) GetAll(ctx context.Context) ([]models.Record[T], error) {
	wire, err := s.api.List(ctx, s.entityType)
	if err != nil {
		return nil, newSyncError(OpList, s.entityType, "", err)
	}

	out := make([]models.Record[T], 0, len(wire))
	for _, w := range wire {
		rec, err := fromWire[T](w)
		if err != nil {
			return nil, newSyncError(OpList, s.entityType, w.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Create writes a new record under a client-generated id.
func (s *RemoteStore[T]) Create(ctx context.Context, data T) (*models.Record[T], error) {
	if err := data.Validate(); err != nil {
		return nil, newSyncError(OpPut, s.entityType, "", err)
	}
	now := s.opts.timestamp()
	return s.Put(ctx, models.Record[T]{
		ID:        s.opts.newID(),
		CreatedAt: now,
		UpdatedAt: now,
		Data:      data,
	})
}

func (s *RemoteStore[T]) Update(ctx context.Context, id string, patch models.Patch[T]) (*models.Record[T], error) {
	w, err := s.api.Get(ctx, s.entityType, id)
	if errors.Is(err, client.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, newSyncError(OpGet, s.entityType, id, err)
	}

	rec, err := fromWire[T](*w)
	if err != nil {
		return nil, newSyncError(OpGet, s.entityType, id, err)
	}
	if err := patch(&rec.Data); err != nil {
		return nil, newSyncError(OpPut, s.entityType, id, err)
	}
	if err := rec.Data.Validate(); err != nil {
		return nil, newSyncError(OpPut, s.entityType, id, err)
	}
	rec.UpdatedAt = s.opts.timestamp()
	return s.Put(ctx, rec)
}

func (s *RemoteStore[T]) Delete(ctx context.Context, id string) (bool, error) {
	existed, err := s.api.Delete(ctx, s.entityType, id)
	if err != nil {
		return false, newSyncError(OpDelete, s.entityType, id, err)
	}
	return existed, nil
}

// Put upserts rec by its id. Repeating it is harmless.
func (s *RemoteStore[T]) Put(ctx context.Context, rec models.Record[T]) (*models.Record[T], error) {
	w, err := toWire(rec)
	if err != nil {
		return nil, newSyncError(OpPut, s.entityType, rec.ID, err)
	}
	stored, err := s.api.Upsert(ctx, s.entityType, w)
	if err != nil {
		return nil, newSyncError(OpPut, s.entityType, rec.ID, err)
	}
	out, err := fromWire[T](*stored)
	if err != nil {
		return nil, newSyncError(OpPut, s.entityType, rec.ID, err)
	}
	return &out, nil
}
