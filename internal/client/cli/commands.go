package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/features"
)

var errUsage = errors.New("usage")

func (a *App) entity(name string) (entityCommands, bool) {
	for _, e := range a.entities {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

func (a *App) entityNames() []string {
	out := make([]string, 0, len(a.entities))
	for _, e := range a.entities {
		out = append(out, e.Name())
	}
	return out
}

// Sync reconciles every entity type now, regardless of background_sync.
func (a *App) Sync(ctx context.Context) error {
	sc := a.session.SyncContext(ctx)
	if !sc.Eligible() {
		printlnFn("Sync is not available: enable cloud_sync and log in")
		return nil
	}

	for _, r := range a.syncer.SyncAll(ctx) {
		res := r.Result
		line := fmt.Sprintf("%-16s pushed %d, purged %d, pulled %d, removed %d, failed %d",
			r.EntityType, res.Pushed, res.Purged, res.Pulled, res.Removed, res.Failed)
		if r.Err != nil {
			line += ": " + r.Err.Error()
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	user := a.session.UserID()
	if user == "" {
		user = "-"
	}
	enabled, source := a.flags.Resolve(features.CloudSync.Name)
	printlnFn(fmt.Sprintf("user: %s, mode: %s, cloud_sync: %t (%s)", user, a.syncer.Mode(), enabled, source))

	for _, e := range a.entities {
		st := e.SyncStatus()
		last := "never"
		if !st.LastSynced.IsZero() {
			last = st.LastSynced.Local().Format(time.DateTime)
		}
		printlnFn(fmt.Sprintf("%-16s pending %d, last synced %s, syncing %t", e.Name(), st.PendingCount, last, st.IsSyncing))
	}
	return nil
}

func (a *App) Login(ctx context.Context, token string) error {
	if err := a.session.Login(ctx, token); err != nil {
		return err
	}
	printlnFn("Logged in as", a.session.UserID())
	a.syncer.Notify("")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out; local data is kept")
	return nil
}

// Feature lists flags, or sets one with "<name> on|off|reset".
func (a *App) Feature(ctx context.Context, args []string) error {
	if len(args) == 0 {
		for _, f := range features.ListAll() {
			enabled, source := a.flags.Resolve(f.Name)
			printlnFn(fmt.Sprintf("%-16s %-5t %-8s %s", f.Name, enabled, source, f.Description))
		}
		return nil
	}
	if len(args) != 2 || !features.IsKnownFeature(args[0]) {
		return fmt.Errorf("%w: feature [<name> on|off|reset]", errUsage)
	}

	switch strings.ToLower(args[1]) {
	case "reset":
		a.flags.Unset(args[0])
	default:
		enabled, ok := features.ParseBool(args[1])
		if !ok {
			return fmt.Errorf("%w: feature [<name> on|off|reset]", errUsage)
		}
		a.flags.Set(args[0], enabled)
	}

	enabled, source := a.flags.Resolve(args[0])
	printlnFn(fmt.Sprintf("%s is %t (%s)", args[0], enabled, source))
	return nil
}

func (a *App) Wipe(ctx context.Context) error {
	if err := a.session.Wipe(ctx); err != nil {
		return err
	}
	for _, e := range a.entities {
		if err := e.Refetch(ctx); err != nil {
			return err
		}
	}
	printlnFn("Local data wiped")
	return nil
}
