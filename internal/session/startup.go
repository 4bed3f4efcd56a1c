package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/storage"
)

// Restore loads the persisted session and reset flow into memory without
// contacting the collaborator. A token without a profile (or the reverse), or
// a profile that does not decode, is treated as no session and both keys are
// removed. Only storage failures are returned.
func (s *Store) Restore(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	token, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("restore token: %w", err)
	}

	user, haveUser, err := s.userSlot.Load(ctx)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return fmt.Errorf("restore user: %w", err)
	}
	corrupt := err != nil
	if corrupt {
		logger.Warn("discarding malformed user snapshot", map[string]any{
			"key":   s.userSlot.Key(),
			"error": err.Error(),
		})
	}

	switch {
	case token != "" && haveUser:
		s.setSession(token, &user)
		logger.Debug("session restored", map[string]any{"user_id": user.ID})
	case token != "" || haveUser || corrupt:
		logger.Warn("discarding incomplete session", map[string]any{
			"has_token": token != "",
			"has_user":  haveUser,
		})
		if err := s.clearStoredSession(ctx); err != nil {
			return fmt.Errorf("clear incomplete session: %w", err)
		}
		s.setSession("", nil)
	default:
		s.setSession("", nil)
	}

	flow, ok, err := s.resetSlot.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		logger.Warn("discarding malformed reset flow", map[string]any{
			"key":   s.resetSlot.Key(),
			"error": err.Error(),
		})
		if err := s.resetSlot.Clear(ctx); err != nil {
			return fmt.Errorf("clear reset flow: %w", err)
		}
		flow = ResetFlow{}
	case err != nil:
		return fmt.Errorf("restore reset flow: %w", err)
	case !ok:
		flow = ResetFlow{}
	}

	s.mu.Lock()
	s.reset = flow
	s.mu.Unlock()
	return nil
}

// Validate checks a restored session against the collaborator. When the
// token is rejected or the collaborator cannot be reached, the session is
// dropped from memory and storage without reporting an error. Only storage
// failures and context cancellation are returned.
func (s *Store) Validate(ctx context.Context) error {
	done := s.begin()
	defer done()

	token := s.Token()
	if token == "" {
		return nil
	}

	user, err := s.auth.Profile(ctx, token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("session validation failed, logging out", map[string]any{
			"error":        err.Error(),
			"unauthorized": api.IsUnauthorized(err),
		})
		return s.drop(ctx)
	}
	if user == nil {
		logger.Warn("session validation returned no user, logging out", nil)
		return s.drop(ctx)
	}

	current := s.User()
	if current != nil && sameUser(*current, *user) {
		return nil
	}
	if err := s.userSlot.Save(ctx, *user); err != nil {
		return fmt.Errorf("save validated profile: %w", err)
	}
	s.setSession(token, user)
	return nil
}

func (s *Store) drop(ctx context.Context) error {
	if err := s.clearStoredSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setSession("", nil)
	return nil
}
