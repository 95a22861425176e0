package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/bizkeeper/internal/client/client"
	"github.com/dmitrijs2005/bizkeeper/internal/client/config"
	"github.com/dmitrijs2005/bizkeeper/internal/client/facade"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/services"
	"github.com/dmitrijs2005/bizkeeper/internal/client/store"
	"github.com/dmitrijs2005/bizkeeper/internal/features"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      *client.GRPCClient
	flags    *features.Flags
	session  *services.Session
	syncer   *services.Syncer
	entities []entityCommands
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api, err := client.NewRecordsClient(c.ServerEndpointAddr, client.WithRequestTimeout(c.RequestTimeout))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config: c,
		logger: logger,
		db:     db,
		api:    api,
		flags:  features.New(c.FeatureFlags),
	}
	a.session = services.NewSession(db, a.flags, api, logger)
	a.syncer = services.NewSyncer(api, a.flags, logger, services.SyncerConfig{
		Interval:            c.SyncInterval,
		Debounce:            c.SyncDebounce,
		OnlineCheckInterval: c.OnlineCheckInterval,
	})

	opts := []store.Option{store.WithLogger(logger)}
	addEntity[models.Client](a, opts)
	addEntity[models.Invoice](a, opts)
	addEntity[models.Project](a, opts)
	addEntity[models.MileageEntry](a, opts)
	addEntity[models.Appointment](a, opts)

	return a, nil
}

func addEntity[T models.Entity](a *App, opts []store.Option) {
	local := store.NewLocalStore[T](a.db, opts...)
	remote := store.NewRemoteFactory[T](a.api, opts...)
	hybrid := store.NewHybrid(local, remote, append(opts, store.WithMutationHook(a.syncer.Notify))...)

	f := facade.New(hybrid, a.session, a.logger)
	a.syncer.Register(f)
	a.entities = append(a.entities, &entity[T]{f: f})
}

// Run restores the session, starts background sync and blocks in the REPL
// until the user exits or stdin is closed.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.session.Restore(ctx, a.config.AccessToken); err != nil {
		a.logger.Warn(ctx, "session not restored", "error", err)
	}
	for _, e := range a.entities {
		if err := e.Refetch(ctx); err != nil {
			return fmt.Errorf("load %s: %w", e.Name(), err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.syncer.Run(ctx)

	printlnFn("Welcome to bizkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
	return nil
}

func (a *App) Close() {
	if err := a.api.Close(); err != nil {
		a.logger.Warn(context.Background(), "close client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(context.Background(), "close database", "error", err)
	}
}

func (a *App) getStatus() string {
	parts := make([]string, 0, 3)
	if u := a.session.UserID(); u != "" {
		parts = append(parts, u)
	}
	parts = append(parts, string(a.syncer.Mode()))

	pending := 0
	for _, e := range a.entities {
		pending += e.SyncStatus().PendingCount
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", pending))
	}
	return "(" + strings.Join(parts, " ") + ")"
}
