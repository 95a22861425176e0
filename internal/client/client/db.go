package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/bizkeeper/internal/filex"

	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db)
}

// InitDatabase opens the local SQLite file and brings its schema up to
// date. The handle is limited to one connection so local operations never
// interleave.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if err := filex.EnsureDBDir(dsn); err != nil {
		return nil, fmt.Errorf("prepare local database: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure local database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
