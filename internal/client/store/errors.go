package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/client/client"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

var (
	// ErrNotEligible is returned when a remote store is requested without
	// sync enabled or without a user.
	ErrNotEligible = errors.New("sync not eligible")

	// ErrReconcileInProgress is returned by a Reconcile call that overlaps
	// another one for the same entity type.
	ErrReconcileInProgress = errors.New("reconciliation already in progress")

	// ErrOwnerMismatch is returned when the device already holds data synced
	// by a different user.
	ErrOwnerMismatch = errors.New("local data belongs to another user")
)

// ErrorCode classifies a remote failure.
type ErrorCode string

const (
	CodeNetworkFailure    ErrorCode = "NETWORK_FAILURE"
	CodeAuthFailure       ErrorCode = "AUTH_FAILURE"
	CodeRejected          ErrorCode = "REJECTED"
	CodeStorageFailure    ErrorCode = "STORAGE_FAILURE"
	CodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
)

// Operation names the remote call that failed.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpPut    Operation = "put"
	OpDelete Operation = "delete"
)

// SyncError is how every remote failure surfaces.
type SyncError struct {
	Op         Operation
	Code       ErrorCode
	EntityType string
	RecordID   string
	Retryable  bool
	Err        error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("remote %s %s", e.Op, e.EntityType)
	if e.RecordID != "" {
		msg += "/" + e.RecordID
	}
	return fmt.Sprintf("%s failed [%s]: %v", msg, e.Code, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Halts reports whether the failure affects every record, not just this one.
func (e *SyncError) Halts() bool {
	return e.Code == CodeNetworkFailure || e.Code == CodeAuthFailure
}

func newSyncError(op Operation, entityType, id string, err error) *SyncError {
	se := &SyncError{Op: op, EntityType: entityType, RecordID: id, Err: err}
	switch {
	case errors.Is(err, client.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		se.Code, se.Retryable = CodeNetworkFailure, true
	case errors.Is(err, client.ErrUnauthorized):
		se.Code = CodeAuthFailure
	case errors.Is(err, client.ErrRejected):
		se.Code = CodeRejected
	case errors.Is(err, models.ErrValidation):
		se.Code = CodeValidationFailure
	default:
		se.Code, se.Retryable = CodeStorageFailure, true
	}
	return se
}

// IsRetryable checks if err is a retryable SyncError.
func IsRetryable(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// CodeOf returns the SyncError code of err, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
