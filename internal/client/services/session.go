package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/bizkeeper/internal/auth"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/client/store"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
	"github.com/dmitrijs2005/bizkeeper/internal/features"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// TokenHolder receives the bearer token used on remote calls.
type TokenHolder interface {
	SetAccessToken(token string)
}

// Session tracks the signed-in user of this device. Together with the
// cloud_sync feature flag it decides sync eligibility.
type Session struct {
	db     *sql.DB
	flags  *features.Flags
	tokens TokenHolder
	logger logging.Logger

	mu     sync.RWMutex
	token  string
	userID string
}

func NewSession(db *sql.DB, flags *features.Flags, tokens TokenHolder, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Session{
		db:     db,
		flags:  flags,
		tokens: tokens,
		logger: logger.With("module", "session"),
	}
}

func (s *Session) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Restore loads the stored token. When none is stored, fallback (usually
// from the config file) is used instead. An expired or malformed token
// leaves the session signed out without failing.
func (s *Session) Restore(ctx context.Context, fallback string) error {
	stored, err := s.getMetadataRepo().Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("load access token: %w", err)
	}

	token := string(stored)
	if token == "" {
		token = fallback
	}
	if token == "" {
		return nil
	}

	err = s.Login(ctx, token)
	if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
		s.logger.Warn(ctx, "stored token unusable, signed out", "error", err)
		return s.Logout(ctx)
	}
	return err
}

// Login stores token and signs its user in. The token signature is checked
// by the server; here only the user id claim and expiry are read.
func (s *Session) Login(ctx context.Context, token string) error {
	userID, err := auth.UserIDFromTokenUnverified(token)
	if err != nil {
		return err
	}

	owner, err := s.getMetadataRepo().Get(ctx, metadata.KeyOwnerUserID)
	if err != nil {
		return err
	}
	if owner != nil && string(owner) != userID {
		return fmt.Errorf("%w: wipe local data before signing in as %s", store.ErrOwnerMismatch, userID)
	}

	if err := s.getMetadataRepo().Set(ctx, metadata.KeyAccessToken, []byte(token)); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}

	s.mu.Lock()
	s.token, s.userID = token, userID
	s.mu.Unlock()
	s.tokens.SetAccessToken(token)

	s.logger.Info(ctx, "signed in", "user", userID)
	return nil
}

// Logout forgets the token. Local records are kept.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.getMetadataRepo().Delete(ctx, metadata.KeyAccessToken); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	s.signOut()
	return nil
}

func (s *Session) signOut() {
	s.mu.Lock()
	s.token, s.userID = "", ""
	s.mu.Unlock()
	s.tokens.SetAccessToken("")
}

// UserID returns the signed-in user, or "" when signed out or the token
// has expired since login.
func (s *Session) UserID() string {
	s.mu.RLock()
	token, userID := s.token, s.userID
	s.mu.RUnlock()

	if token == "" {
		return ""
	}
	if _, err := auth.UserIDFromTokenUnverified(token); err != nil {
		return ""
	}
	return userID
}

// SyncContext is re-evaluated on every call.
func (s *Session) SyncContext(ctx context.Context) models.SyncContext {
	return models.SyncContext{
		Enabled: s.flags.IsEnabled(features.CloudSync.Name),
		UserID:  s.UserID(),
	}
}

// Wipe removes every local record and all device metadata, the token
// included, and signs out.
func (s *Session) Wipe(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("wipe local data: %w", err)
	}
	s.signOut()
	s.logger.Info(ctx, "local data wiped")
	return nil
}
