package core

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/models"
)

const (
	MsgProfileUpdated  = "Profilo aggiornato con successo"
	MsgPasswordUpdated = "Password aggiornata con successo"
	MsgBillingUpdated  = "Dati di fatturazione aggiornati con successo"

	msgProfileUpdateFailed  = "Errore durante l'aggiornamento del profilo"
	msgPasswordUpdateFailed = "Errore durante l'aggiornamento della password"
	msgBillingUpdateFailed  = "Errore durante l'aggiornamento dei dati"
	msgInvalidBilling       = "Dati di fatturazione non validi"
)

type ProfileInput struct {
	Nome    string `json:"nome"`
	Cognome string `json:"cognome"`
}

type PasswordInput struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type profileService struct {
	idp    IdentityProvider
	users  db.UserRepository
	logger *zap.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(idp IdentityProvider, users db.UserRepository, logger *zap.Logger) ProfileService {
	return &profileService{idp: idp, users: users, logger: logger}
}

func (s *profileService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, msgUserNotFound, err)
		}
		return nil, failed(msgLoadFailed, err)
	}
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	nome, cognome := strings.TrimSpace(in.Nome), strings.TrimSpace(in.Cognome)
	if anyBlank(nome, cognome) {
		return nil, validationError(MsgRequiredFields)
	}
	if err := s.users.UpdateProfile(ctx, userID, nome, cognome); err != nil {
		return nil, s.writeError(err, msgProfileUpdateFailed)
	}
	return s.GetUser(ctx, userID)
}

// ChangePassword updates the password at the identity provider. Nothing is written to Firestore.
func (s *profileService) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	if anyBlank(in.NewPassword, in.ConfirmPassword) {
		return validationError(MsgRequiredFields)
	}
	if in.NewPassword != in.ConfirmPassword {
		return validationError(MsgPasswordMismatch)
	}
	if len(in.NewPassword) < minPasswordLength {
		return validationError(MsgPasswordTooShort)
	}
	if err := s.idp.UpdatePassword(ctx, userID, in.NewPassword); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Code == CodeWeakPassword {
			return newError(ErrValidation, AuthMessage(FlowRegister, CodeWeakPassword), err)
		}
		return failed(msgPasswordUpdateFailed, err)
	}
	s.logger.Info("Password changed", zap.String("uid", userID))
	return nil
}

// GetBilling returns the stored billing data, or an empty record when none was saved yet.
func (s *profileService) GetBilling(ctx context.Context, userID string) (*models.BillingData, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Billing == nil {
		return &models.BillingData{}, nil
	}
	return user.Billing, nil
}

func (s *profileService) UpdateBilling(ctx context.Context, userID string, billing models.BillingData) (*models.BillingData, error) {
	billing.CodiceDestinatario = strings.ToUpper(strings.TrimSpace(billing.CodiceDestinatario))
	billing.Provincia = strings.ToUpper(strings.TrimSpace(billing.Provincia))
	if err := models.Validate(billing); err != nil {
		return nil, newError(ErrValidation, msgInvalidBilling, err)
	}
	if err := s.users.UpdateBilling(ctx, userID, &billing); err != nil {
		return nil, s.writeError(err, msgBillingUpdateFailed)
	}
	return &billing, nil
}

func (s *profileService) writeError(err error, failMsg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return newError(ErrNotFound, msgUserNotFound, err)
	}
	return failed(failMsg, err)
}
