// Package records is the client-side persistence layer for synced records.
//
// # Data Model
//
// Every entity type shares the records table. Besides the JSON document a
// row carries its sync status, a tombstone flag (deleted), an acked flag
// set once the remote store may hold any version of the row (a push was
// sent or a pull delivered it), and seq,
// a counter bumped on every write. Timestamps are stored as UTC unix
// nanoseconds.
//
// Pending rows are pushed in seq order. MarkSynced and Purge compare seq,
// so an acknowledgement for an older version never clears a newer local
// edit.
//
// # Concurrency
//
// The repository runs on a dbx.DBTX. Read-modify-write sequences belong in
// one transaction (see dbx.WithTx); the client opens SQLite with a single
// connection.
//
// Typical Usage
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := records.NewSQLiteRepository(tx)
//	    row, err := repo.Get(ctx, "clients", id)
//	    ...
//	    _, err = repo.Put(ctx, row)
//	    return err
//	})
package records
