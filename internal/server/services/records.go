// Package services contains server-side business logic: record storage
// scoped to the authenticated user, and access token handling.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
	"github.com/dmitrijs2005/bizkeeper/internal/server/repositories/repomanager"
)

const maxRecordIDLength = 128

var entityTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// RecordService stores opaque JSON records per user and entity type.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: m,
		now:         time.Now,
	}
}

func validateEntityType(entityType string) error {
	if !entityTypePattern.MatchString(entityType) {
		return fmt.Errorf("%w: %q", common.ErrorInvalidEntityType, entityType)
	}
	return nil
}

func validateID(id string) error {
	if id == "" || len(id) > maxRecordIDLength {
		return fmt.Errorf("%w: bad id %q", common.ErrorInvalidRecord, id)
	}
	return nil
}

// validateData accepts JSON objects only.
func validateData(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return fmt.Errorf("%w: data must be a JSON object", common.ErrorInvalidRecord)
	}
	return nil
}

func (s *RecordService) List(ctx context.Context, userID, entityType string) ([]*models.Record, error) {
	if err := validateEntityType(entityType); err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).List(ctx, userID, entityType)
}

func (s *RecordService) Get(ctx context.Context, userID, entityType, id string) (*models.Record, error) {
	if err := validateEntityType(entityType); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).Get(ctx, userID, entityType, id)
}

// Upsert stores record for userID under its own id. Missing timestamps are
// filled with the current time.
func (s *RecordService) Upsert(ctx context.Context, userID string, record *models.Record) (*models.Record, error) {
	if err := validateEntityType(record.EntityType); err != nil {
		return nil, err
	}
	if err := validateID(record.ID); err != nil {
		return nil, err
	}
	if err := validateData(record.Data); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := *record
	r.UserID = userID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}

	return s.repomanager.Records(s.db).Upsert(ctx, &r)
}

// Delete removes a record and reports whether it existed.
func (s *RecordService) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	if err := validateEntityType(entityType); err != nil {
		return false, err
	}
	if err := validateID(id); err != nil {
		return false, err
	}
	return s.repomanager.Records(s.db).Delete(ctx, userID, entityType, id)
}
