// Package store is the local-first data layer.
//
// Every entity type gets the same stack:
//
//   - LocalStore: the SQLite-backed system of record. Writes return once
//     committed and never wait on the network.
//   - RemoteStore: the hosted backend reached through client.RecordsAPI,
//     usable only under an eligible models.SyncContext.
//   - Hybrid: reads and writes go to the LocalStore; Reconcile pushes
//     pending rows to a RemoteStore, then pulls the remote list back.
//
// All three satisfy Adapter.
//
// # Reconciliation
//
// Push walks pending rows oldest mutation first and re-reads each row right
// before sending it, so the latest local state is what reaches the remote.
// Acknowledgement is compare-and-set on the row's seq: an edit made while a
// push is in flight keeps the row pending. Tombstones are deleted remotely,
// then purged.
//
// Pull upserts remote rows by id inside one transaction. Pending rows and
// tombstones are never overwritten; synced rows that vanished remotely are
// removed.
//
// Records carry client-generated ids, so a push that is retried after a
// lost acknowledgement overwrites the same remote row instead of creating
// a second one.
package store
