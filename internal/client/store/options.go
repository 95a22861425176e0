package store

import (
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/google/uuid"
)

type options struct {
	now        func() time.Time
	newID      func() string
	logger     logging.Logger
	onMutation func(entityType string)
}

type Option func(*options)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMutationHook is called by Hybrid after every committed local change.
// It must not block.
func WithMutationHook(fn func(entityType string)) Option {
	return func(o *options) { o.onMutation = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logging.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timestamp is microsecond precision in UTC, which both SQLite and
// Postgres round-trip exactly.
func (o options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}
