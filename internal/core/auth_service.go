package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
)

// RegisterInput is the coach self-registration form.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Nome            string
	Cognome         string
}

// Registration is the outcome of a successful registration.
type Registration struct {
	User         *models.User         `json:"user"`
	Subscription *models.Subscription `json:"subscription"`
}

// LoginResult carries the tokens for the SPA plus the route it should land on.
type LoginResult struct {
	IDToken      string       `json:"idToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *models.User `json:"user"`
	Home         string       `json:"home"`
}

// SuperAdminInput seeds the platform administrator.
type SuperAdminInput struct {
	Email    string
	Password string
	Nome     string
	Cognome  string
}

const (
	msgUserNotFound      = "Utente non trovato"
	msgAdminUnauthorized = "Accesso non autorizzato. Solo gli amministratori possono accedere a questa area."
)

type authService struct {
	idp           IdentityProvider
	users         db.UserRepository
	subscriptions db.SubscriptionRepository
	catalog       CatalogService
	publisher     events.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(
	idp IdentityProvider,
	users db.UserRepository,
	subscriptions db.SubscriptionRepository,
	catalog CatalogService,
	publisher events.Publisher,
	logger *zap.Logger,
) AuthService {
	return &authService{
		idp:           idp,
		users:         users,
		subscriptions: subscriptions,
		catalog:       catalog,
		publisher:     publisher,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func validateRegistration(in RegisterInput) *Error {
	if anyBlank(in.Email, in.Password, in.ConfirmPassword, in.Nome, in.Cognome) {
		return validationError(MsgRequiredFields)
	}
	if in.Password != in.ConfirmPassword {
		return validationError(MsgPasswordMismatch)
	}
	if len(in.Password) < minPasswordLength {
		return validationError(MsgPasswordTooShort)
	}
	if !validEmail(strings.TrimSpace(in.Email)) {
		return validationError(MsgInvalidEmail)
	}
	return nil
}

// Register creates the auth identity, the coach user document and the trial subscription.
// If a document write fails the earlier steps are undone on a best-effort basis.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	if verr := validateRegistration(in); verr != nil {
		return nil, verr
	}
	email := normalizeEmail(in.Email)
	nome, cognome := strings.TrimSpace(in.Nome), strings.TrimSpace(in.Cognome)

	trial, err := s.catalog.Plan(ctx, models.TierTrial)
	if err != nil {
		return nil, failed(AuthMessage(FlowRegister, ""), err)
	}

	uid, err := s.idp.CreateUser(ctx, email, in.Password, nome+" "+cognome)
	if err != nil {
		return nil, translateAuthError(FlowRegister, err)
	}

	start := s.now()
	user := &models.User{
		ID:        uid,
		Email:     email,
		Role:      models.RoleCoach,
		Nome:      nome,
		Cognome:   cognome,
		Status:    models.UserStatusActive,
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.rollbackIdentity(ctx, uid)
		return nil, failed(AuthMessage(FlowRegister, ""), err)
	}

	sub := &models.Subscription{
		ID:        uid,
		UserID:    uid,
		Status:    models.SubscriptionStatusActive,
		StartDate: start,
		EndDate:   start.Add(models.TrialDuration),
		CreatedAt: start,
		UpdatedAt: start,
	}
	sub.ApplyPlan(trial)
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		if delErr := s.users.Delete(ctx, uid); delErr != nil {
			s.logger.Error("Rollback of user document failed", zap.String("uid", uid), zap.Error(delErr))
		}
		s.rollbackIdentity(ctx, uid)
		return nil, failed(AuthMessage(FlowRegister, ""), err)
	}

	s.logger.Info("Coach registered", zap.String("uid", uid))
	publish(ctx, s.publisher, s.logger, events.CoachRegistered{
		UserID:      uid,
		Email:       email,
		Nome:        nome,
		Cognome:     cognome,
		TrialEndsAt: sub.EndDate,
	})
	return &Registration{User: user, Subscription: sub}, nil
}

func (s *authService) rollbackIdentity(ctx context.Context, uid string) {
	if err := s.idp.DeleteUser(ctx, uid); err != nil {
		s.logger.Error("Rollback of auth identity failed, orphaned identity left behind", zap.String("uid", uid), zap.Error(err))
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if anyBlank(email, password) {
		return nil, validationError(MsgRequiredFields)
	}
	res, err := s.idp.SignInWithPassword(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, translateAuthError(FlowLogin, err)
	}
	user, err := s.lookupSignedIn(ctx, res.UID)
	if err != nil {
		return nil, err
	}
	return loginResult(res, user), nil
}

// AdminLogin signs in and rejects every role other than super_admin without returning tokens.
func (s *authService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	if anyBlank(email, password) {
		return nil, validationError(MsgRequiredFields)
	}
	res, err := s.idp.SignInWithPassword(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, translateAuthError(FlowAdminLogin, err)
	}
	user, err := s.lookupSignedIn(ctx, res.UID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleSuperAdmin {
		s.logger.Warn("Non-admin attempted admin login", zap.String("uid", user.ID), zap.String("role", string(user.Role)))
		return nil, newError(ErrForbidden, msgAdminUnauthorized, nil)
	}
	return loginResult(res, user), nil
}

func (s *authService) lookupSignedIn(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, msgUserNotFound, err)
		}
		return nil, failed(AuthMessage(FlowLogin, ""), err)
	}
	return user, nil
}

func loginResult(res *SignInResult, user *models.User) *LoginResult {
	return &LoginResult{
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(res.ExpiresIn / time.Second),
		User:         user,
		Home:         access.HomeFor(user.Role),
	}
}

func (s *authService) Logout(ctx context.Context, uid string) error {
	if err := s.idp.RevokeRefreshTokens(ctx, uid); err != nil {
		return failed(MsgOperationFailed, err)
	}
	return nil
}

// EnsureSuperAdmin creates the administrator identity and document when missing.
// The boolean reports whether anything was created.
func (s *authService) EnsureSuperAdmin(ctx context.Context, in SuperAdminInput) (*models.User, bool, error) {
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, false, validationError(MsgInvalidEmail)
	}

	created := false
	uid, err := s.idp.GetUserIDByEmail(ctx, email)
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) || authErr.Code != CodeUserNotFound {
			return nil, false, failed(MsgOperationFailed, err)
		}
		if len(in.Password) < minPasswordLength {
			return nil, false, validationError(MsgPasswordTooShort)
		}
		uid, err = s.idp.CreateUser(ctx, email, in.Password, strings.TrimSpace(in.Nome+" "+in.Cognome))
		if err != nil {
			return nil, false, translateAuthError(FlowRegister, err)
		}
		created = true
	}

	user, err := s.users.GetByID(ctx, uid)
	switch {
	case err == nil:
		if user.Role != models.RoleSuperAdmin {
			return nil, false, newError(ErrConflict, "L'utente esiste già con un ruolo diverso", nil)
		}
		return user, created, nil
	case !errors.Is(err, db.ErrNotFound):
		return nil, false, failed(MsgOperationFailed, err)
	}

	ts := s.now()
	user = &models.User{
		ID:        uid,
		Email:     email,
		Role:      models.RoleSuperAdmin,
		Nome:      in.Nome,
		Cognome:   in.Cognome,
		Status:    models.UserStatusActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, failed(MsgOperationFailed, err)
	}
	s.logger.Info("Super admin created", zap.String("uid", uid), zap.String("email", email))
	return user, true, nil
}

// publish sends evt and only logs failures; event delivery never fails the user operation.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, evt events.Event) {
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn("Event publish failed", zap.String("type", evt.EventType()), zap.Error(err))
	}
}
