// Package client contains the client-side plumbing of bizkeeper.
//
// # Overview
//
// The package provides:
//  1. RecordsAPI, the contract the data layer uses to reach the hosted
//     record store: Ping, List, Get, Upsert and Delete per entity type.
//  2. GRPCClient, its gRPC implementation. It attaches the bearer token
//     through an interceptor, bounds calls with a request timeout and maps
//     gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations): an SQLite
//     database limited to one connection with the embedded goose schema.
//
// # Error Handling
//
// Callers match with errors.Is: ErrUnavailable (network, timeouts),
// ErrUnauthorized (missing or expired token), ErrRejected (the backend
// refused the payload or the record belongs to another user) and
// ErrNotFound.
//
// See Also
//
//   - Interface:  RecordsAPI
//   - gRPC impl:  GRPCClient
//   - DB helpers: InitDatabase, RunMigrations
package client
