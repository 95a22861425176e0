package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/client"
	"github.com/dmitrijs2005/bizkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeBackend is an in-memory RecordsAPI with fault injection.
type fakeBackend struct {
	client.RecordsAPI

	mu      sync.Mutex
	records map[string]map[string]rpc.Record
	calls   map[string]int

	// upsertErr fails Upsert for the given id before storing.
	upsertErr map[string]error
	// lostAck stores the record, then fails the call.
	lostAck map[string]error
	// deleteErr fails Delete for the given id.
	deleteErr map[string]error
	listErr   error
	// beforeUpsertReturn runs after the record is stored.
	beforeUpsertReturn func(id string)
	// listGate, when set, blocks List until closed.
	listGate chan struct{}
	listed   chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		records:   map[string]map[string]rpc.Record{},
		calls:     map[string]int{},
		upsertErr: map[string]error{},
		lostAck:   map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeBackend) Ping(context.Context) error { return nil }

func (f *fakeBackend) List(ctx context.Context, entityType string) ([]rpc.Record, error) {
	f.mu.Lock()
	f.calls["list"]++
	gate, listed := f.listGate, f.listed
	f.mu.Unlock()

	if gate != nil {
		if listed != nil {
			close(listed)
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]rpc.Record, 0, len(f.records[entityType]))
	for _, r := range f.records[entityType] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBackend) Get(ctx context.Context, entityType, id string) (*rpc.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	r, ok := f.records[entityType][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrNotFound, id)
	}
	return &r, nil
}

func (f *fakeBackend) Upsert(ctx context.Context, entityType string, rec rpc.Record) (*rpc.Record, error) {
	f.mu.Lock()
	f.calls["upsert"]++
	if err := f.upsertErr[rec.ID]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.records[entityType] == nil {
		f.records[entityType] = map[string]rpc.Record{}
	}
	f.records[entityType][rec.ID] = rec
	lost := f.lostAck[rec.ID]
	delete(f.lostAck, rec.ID)
	hook := f.beforeUpsertReturn
	f.mu.Unlock()

	if hook != nil {
		hook(rec.ID)
	}
	if lost != nil {
		return nil, lost
	}
	return &rec, nil
}

func (f *fakeBackend) Delete(ctx context.Context, entityType, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if err := f.deleteErr[id]; err != nil {
		return false, err
	}
	_, ok := f.records[entityType][id]
	delete(f.records[entityType], id)
	return ok, nil
}

func (f *fakeBackend) count(entityType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[entityType])
}

func (f *fakeBackend) get(entityType, id string) (rpc.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[entityType][id]
	return r, ok
}

func (f *fakeBackend) put(entityType string, r rpc.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records[entityType] == nil {
		f.records[entityType] = map[string]rpc.Record{}
	}
	f.records[entityType][r.ID] = r
}

func (f *fakeBackend) remove(entityType, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records[entityType], id)
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func clientJSON(t *testing.T, c models.Client) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	return b
}

// stepClock advances by one millisecond on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func seqIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

var eligible = models.SyncContext{Enabled: true, UserID: "user-1"}

type harness struct {
	db      *sql.DB
	backend *fakeBackend
	local   *LocalStore[models.Client]
	hybrid  *Hybrid[models.Client]
	hooks   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{db: newDB(t), backend: newFakeBackend()}
	clock := newStepClock()
	opts := []Option{WithClock(clock.Now), WithIDGenerator(seqIDs("c"))}

	h.local = NewLocalStore[models.Client](h.db, opts...)
	h.hybrid = NewHybrid(h.local, NewRemoteFactory[models.Client](h.backend, opts...),
		append(opts, WithMutationHook(func(entity string) { h.hooks = append(h.hooks, entity) }))...)
	return h
}

func (h *harness) rows(t *testing.T) []models.StoredRecord {
	t.Helper()
	var out []models.StoredRecord
	rows, err := h.db.Query(`SELECT id, sync_status, deleted, acked, seq, data FROM records WHERE entity_type = 'clients' ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var r models.StoredRecord
		var status string
		require.NoError(t, rows.Scan(&r.ID, &status, &r.Deleted, &r.Acked, &r.Seq, &r.Data))
		r.SyncStatus = models.SyncStatus(status)
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func openFileDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
