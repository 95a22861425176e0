package facade

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/store"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// Eligibility yields the sync context at the start of every reconciliation.
type Eligibility interface {
	SyncContext(ctx context.Context) models.SyncContext
}

// EligibilityFunc adapts a function to Eligibility.
type EligibilityFunc func(ctx context.Context) models.SyncContext

func (f EligibilityFunc) SyncContext(ctx context.Context) models.SyncContext {
	return f(ctx)
}

// SyncStatus is a read-only projection for badges. It is derived from the
// local store, never authoritative.
type SyncStatus struct {
	PendingCount int
	LastSynced   time.Time
	IsSyncing    bool
}

// State is a snapshot of what the facade exposes.
type State[T any] struct {
	Data       []models.Record[T]
	Loading    bool
	Err        error
	SyncStatus SyncStatus
}

type Facade[T models.Entity] struct {
	hybrid      *store.Hybrid[T]
	eligibility Eligibility
	logger      logging.Logger

	mu        sync.Mutex
	state     State[T]
	gen       uint64
	syncing   int
	listeners map[int]func(State[T])
	nextID    int
}

// New returns a facade in the loading state; call Refetch to populate it.
func New[T models.Entity](hybrid *store.Hybrid[T], eligibility Eligibility, logger logging.Logger) *Facade[T] {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Facade[T]{
		hybrid:      hybrid,
		eligibility: eligibility,
		logger:      logger.With("module", "facade", "entity", hybrid.EntityType()),
		state:       State[T]{Data: []models.Record[T]{}, Loading: true},
		listeners:   map[int]func(State[T]){},
	}
}

func (f *Facade[T]) EntityType() string {
	return f.hybrid.EntityType()
}

func (f *Facade[T]) Data() []models.Record[T] {
	return f.State().Data
}

func (f *Facade[T]) Loading() bool {
	return f.State().Loading
}

func (f *Facade[T]) Err() error {
	return f.State().Err
}

func (f *Facade[T]) SyncStatus() SyncStatus {
	return f.State().SyncStatus
}

// State returns a copy of the current state.
func (f *Facade[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Facade[T]) snapshot() State[T] {
	s := f.state
	s.Data = append([]models.Record[T](nil), f.state.Data...)
	if s.Data == nil {
		s.Data = []models.Record[T]{}
	}
	s.SyncStatus.IsSyncing = f.syncing > 0
	return s
}

// Subscribe registers fn to receive every state change. The returned
// function removes it.
func (f *Facade[T]) Subscribe(fn func(State[T])) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// update applies fn under the lock and notifies listeners outside it.
func (f *Facade[T]) update(fn func(s *State[T])) {
	f.mu.Lock()
	fn(&f.state)
	snap := f.snapshot()
	listeners := make([]func(State[T]), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (f *Facade[T]) fail(ctx context.Context, op string, err error) error {
	f.logger.Error(ctx, op+" failed", "error", err)
	f.update(func(s *State[T]) { s.Err = err })
	return err
}

// Add creates a record locally and refreshes the in-memory state.
//
// The returned error is only ever a failed write. Once the write commits a
// failed refresh is reported through Err and the record is still returned.
func (f *Facade[T]) Add(ctx context.Context, data T) (*models.Record[T], error) {
	rec, err := f.hybrid.Create(ctx, data)
	if err != nil {
		return nil, f.fail(ctx, "add", err)
	}
	_ = f.Refetch(ctx)
	return rec, nil
}

// Update patches a record; a nil record means the id does not exist.
// Errors follow Add.
func (f *Facade[T]) Update(ctx context.Context, id string, patch models.Patch[T]) (*models.Record[T], error) {
	rec, err := f.hybrid.Update(ctx, id, patch)
	if err != nil {
		return nil, f.fail(ctx, "update", err)
	}
	if rec == nil {
		return nil, nil
	}
	_ = f.Refetch(ctx)
	return rec, nil
}

// Remove deletes a record and reports whether it existed. Errors follow Add.
func (f *Facade[T]) Remove(ctx context.Context, id string) (bool, error) {
	existed, err := f.hybrid.Delete(ctx, id)
	if err != nil {
		return false, f.fail(ctx, "remove", err)
	}
	if !existed {
		return false, nil
	}
	_ = f.Refetch(ctx)
	return true, nil
}

// Refetch re-reads everything from the local store. No network is used.
// When refetches overlap, only the latest one publishes its result.
func (f *Facade[T]) Refetch(ctx context.Context) error {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	f.update(func(s *State[T]) { s.Loading = true })

	data, pending, last, err := f.load(ctx)

	f.update(func(s *State[T]) {
		if gen != f.gen {
			return
		}
		s.Loading = false
		if err != nil {
			s.Err = err
			return
		}
		s.Err = nil
		s.Data = data
		s.SyncStatus.PendingCount = pending
		s.SyncStatus.LastSynced = last
	})

	if err != nil {
		f.logger.Error(ctx, "refetch failed", "error", err)
	}
	return err
}

func (f *Facade[T]) load(ctx context.Context) ([]models.Record[T], int, time.Time, error) {
	data, err := f.hybrid.GetAll(ctx)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	pending, err := f.hybrid.PendingCount(ctx)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	last, _, err := f.hybrid.LastSynced(ctx)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	return data, pending, last, nil
}

// Sync runs one reconciliation with the current eligibility and refetches.
// Remote failures are logged and returned but never stored in Err.
func (f *Facade[T]) Sync(ctx context.Context) (store.ReconcileResult, error) {
	sc := f.eligibility.SyncContext(ctx)
	if !sc.Eligible() {
		return store.ReconcileResult{Skipped: true}, nil
	}

	f.update(func(*State[T]) { f.syncing++ })
	res, err := f.hybrid.Reconcile(ctx, sc)
	f.update(func(*State[T]) { f.syncing-- })

	switch {
	case errors.Is(err, store.ErrReconcileInProgress):
		f.logger.Debug(ctx, "sync already running")
		return res, err
	case err != nil:
		f.logger.Warn(ctx, "sync failed", "error", err, "code", store.CodeOf(err))
	case res.Failed > 0:
		f.logger.Warn(ctx, "sync left records pending", "failed", res.Failed)
	}

	if rerr := f.Refetch(ctx); rerr != nil && err == nil {
		err = rerr
	}
	return res, err
}
