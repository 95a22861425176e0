// Package models defines server-side data models persisted in the database.
package models

import "time"

// Record is one stored entity owned by a user. Data holds the domain
// document as JSON; the server does not interpret it beyond validity.
type Record struct {
	EntityType string
	ID         string
	UserID     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Data       []byte
}
