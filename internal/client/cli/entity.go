package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/client/facade"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// entityCommands is the per-entity command surface of the REPL.
type entityCommands interface {
	Name() string
	List(ctx context.Context) error
	Add(ctx context.Context, raw []byte) error
	Update(ctx context.Context, id string, raw []byte) error
	Delete(ctx context.Context, id string) error
	Refetch(ctx context.Context) error
	SyncStatus() facade.SyncStatus
}

type entity[T models.Entity] struct {
	f *facade.Facade[T]
}

func (e *entity[T]) Name() string {
	return e.f.EntityType()
}

func (e *entity[T]) List(ctx context.Context) error {
	if err := e.f.Refetch(ctx); err != nil {
		return err
	}

	recs := e.f.Data()
	if len(recs) == 0 {
		printlnFn("No records")
		return nil
	}
	for _, r := range recs {
		body, err := json.Marshal(r.Data)
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("%s  %-12s  %s", r.ID, r.SyncStatus, body))
	}
	return nil
}

func (e *entity[T]) Add(ctx context.Context, raw []byte) error {
	data, err := models.Decode[T](raw)
	if err != nil {
		return err
	}
	rec, err := e.f.Add(ctx, data)
	if err != nil {
		return err
	}
	printlnFn("Created", rec.ID)
	return nil
}

func (e *entity[T]) Update(ctx context.Context, id string, raw []byte) error {
	rec, err := e.f.Update(ctx, id, models.JSONPatch[T](raw))
	if err != nil {
		return err
	}
	if rec == nil {
		printlnFn("Not found:", id)
		return nil
	}
	printlnFn("Updated", rec.ID)
	return nil
}

func (e *entity[T]) Delete(ctx context.Context, id string) error {
	existed, err := e.f.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		printlnFn("Not found:", id)
		return nil
	}
	printlnFn("Deleted", id)
	return nil
}

func (e *entity[T]) Refetch(ctx context.Context) error {
	return e.f.Refetch(ctx)
}

func (e *entity[T]) SyncStatus() facade.SyncStatus {
	return e.f.SyncStatus()
}
