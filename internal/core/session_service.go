package core

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/db"
)

type sessionService struct {
	idp    IdentityProvider
	users  db.UserRepository
	logger *zap.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(idp IdentityProvider, users db.UserRepository, logger *zap.Logger) SessionService {
	return &sessionService{idp: idp, users: users, logger: logger}
}

// Resolve verifies idToken and loads the matching users document.
// A token without a users document is treated as unauthenticated, as is any lookup failure.
func (s *sessionService) Resolve(ctx context.Context, idToken string) (*access.Session, error) {
	if idToken == "" {
		return nil, newError(ErrUnauthenticated, "Sessione non valida", nil)
	}
	uid, err := s.idp.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "Sessione non valida o scaduta", err)
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Error("Identity lookup failed", zap.String("uid", uid), zap.Error(err))
		}
		return nil, newError(ErrUnauthenticated, "Utente non trovato", err)
	}
	return &access.Session{Identity: user}, nil
}
