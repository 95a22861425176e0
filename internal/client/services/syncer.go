package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/store"
	"github.com/dmitrijs2005/bizkeeper/internal/features"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// Target is one entity type the Syncer reconciles, usually a facade.
type Target interface {
	EntityType() string
	Sync(ctx context.Context) (store.ReconcileResult, error)
}

// Pinger checks whether the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Report is the outcome of reconciling one target.
type Report struct {
	EntityType string
	Result     store.ReconcileResult
	Err        error
}

type SyncerConfig struct {
	// Interval between periodic passes; zero disables the timer.
	Interval time.Duration
	// Debounce delays the pass that follows a local mutation.
	Debounce time.Duration
	// OnlineCheckInterval between pings; zero disables the watcher.
	OnlineCheckInterval time.Duration
	// PingTimeout bounds each ping.
	PingTimeout time.Duration
}

// Syncer runs reconciliation on start, on a timer, when the backend comes
// back online and shortly after local mutations. Background passes only
// run while the background_sync feature is on; SyncAll always runs.
type Syncer struct {
	pinger Pinger
	flags  *features.Flags
	logger logging.Logger
	cfg    SyncerConfig

	notify chan struct{}

	mu      sync.Mutex
	targets []Target
	mode    Mode

	running sync.Mutex
}

func NewSyncer(pinger Pinger, flags *features.Flags, logger logging.Logger, cfg SyncerConfig) *Syncer {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 3 * time.Second
	}
	return &Syncer{
		pinger: pinger,
		flags:  flags,
		logger: logger.With("module", "syncer"),
		cfg:    cfg,
		notify: make(chan struct{}, 1),
		mode:   ModeOffline,
	}
}

// Register adds targets reconciled by every pass, in registration order.
func (s *Syncer) Register(targets ...Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, targets...)
}

// Notify schedules a debounced pass. It never blocks.
func (s *Syncer) Notify(entityType string) {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Syncer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Syncer) setMode(ctx context.Context, mode Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		return false
	}
	s.mode = mode
	s.logger.Info(ctx, "switched mode", "mode", mode)
	return true
}

// CheckOnline pings the backend, updates the mode and reports whether it
// just switched to online.
func (s *Syncer) CheckOnline(ctx context.Context) bool {
	if s.pinger == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	err := s.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		s.setMode(ctx, ModeOffline)
		return false
	}
	return s.setMode(ctx, ModeOnline)
}

// SyncAll reconciles every target once, one after another. Passes never
// overlap; a call made while another runs waits for it.
func (s *Syncer) SyncAll(ctx context.Context) []Report {
	s.running.Lock()
	defer s.running.Unlock()

	s.mu.Lock()
	targets := append([]Target(nil), s.targets...)
	s.mu.Unlock()

	reports := make([]Report, 0, len(targets))
	for _, t := range targets {
		res, err := t.Sync(ctx)
		reports = append(reports, Report{EntityType: t.EntityType(), Result: res, Err: err})
		if err != nil {
			s.logger.Debug(ctx, "target sync failed", "entity", t.EntityType(), "error", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return reports
}

func (s *Syncer) background(ctx context.Context, reason string) {
	if !s.flags.IsEnabled(features.BackgroundSync.Name) {
		return
	}
	if s.pinger != nil && s.Mode() != ModeOnline {
		s.logger.Debug(ctx, "offline, pass skipped", "reason", reason)
		return
	}
	s.logger.Debug(ctx, "background pass", "reason", reason)
	s.SyncAll(ctx)
}

// Run blocks until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	s.CheckOnline(ctx)
	s.background(ctx, "start")

	var tick, ping <-chan time.Time
	if s.cfg.Interval > 0 {
		t := time.NewTicker(s.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}
	if s.pinger != nil && s.cfg.OnlineCheckInterval > 0 {
		t := time.NewTicker(s.cfg.OnlineCheckInterval)
		defer t.Stop()
		ping = t.C
	}

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.background(ctx, "timer")
		case <-ping:
			if s.CheckOnline(ctx) {
				s.background(ctx, "reconnect")
			}
		case <-s.notify:
			debounce.Reset(s.cfg.Debounce)
		case <-debounce.C:
			s.background(ctx, "mutation")
		}
	}
}
