// Package cli provides the interactive bizkeeper command-line client.
//
// It wires configuration, the local database, the backend client, the
// per-entity facades and the background syncer, then runs a REPL. Every
// command works offline; records are reconciled with the backend when the
// cloud_sync feature is on and a user is signed in.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See runREPL for the command set.
package cli
