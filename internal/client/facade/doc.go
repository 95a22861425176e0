// Package facade is the per-entity-type data access object application
// code works with. It wraps a store.Hybrid, keeps an in-memory snapshot
// of the local records and projects sync status for UI indicators.
package facade
