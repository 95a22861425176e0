// Package services contains application services of the bizkeeper client:
// the Session, which owns the access token and answers whether sync is
// eligible, and the Syncer, which runs reconciliation in the background.
package services
