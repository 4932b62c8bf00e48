package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
)

const (
	MsgAddSubcoachFailed = "Errore durante l'aggiunta del subcoach"
	MsgAddCoacheeFailed  = "Errore durante l'aggiunta del coachee"

	msgSubcoachLimit    = "Hai raggiunto il numero massimo di subcoach previsto dal tuo piano"
	msgCoacheeLimit     = "Hai raggiunto il numero massimo di coachee previsto dal tuo piano"
	msgInactivePlan     = "Il tuo abbonamento non è attivo"
	msgInvalidSubcoach  = "Il subcoach selezionato non appartiene al tuo team"
	msgCoachNotAssigned = "Coach non assegnato"
)

// NewSubcoachInput is the form a coach fills to add a subcoach. Subcoaches get their own login.
type NewSubcoachInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nome     string `json:"nome"`
	Cognome  string `json:"cognome"`
}

// NewCoacheeInput is the form a coach fills to add a coachee. SubcoachID is optional.
type NewCoacheeInput struct {
	Email      string `json:"email"`
	Nome       string `json:"nome"`
	Cognome    string `json:"cognome"`
	SubcoachID string `json:"subcoachId,omitempty"`
}

// CoachStats feeds the coach dashboard. Sessions and goals are not tracked yet and stay at zero.
type CoachStats struct {
	TotalCoachees     int `json:"totalCoachees"`
	TotalSubcoaches   int `json:"totalSubcoaches"`
	SessionsThisMonth int `json:"sessionsThisMonth"`
	CompletedGoals    int `json:"completedGoals"`
	MaxCoachee        int `json:"maxCoachee"`
	MaxSubcoach       int `json:"maxSubcoach"`
}

type SubcoachStats struct {
	AssignedCoachees int    `json:"assignedCoachees"`
	CoachName        string `json:"coachName"`
}

type CoacheeStats struct {
	TotalSessions    int    `json:"totalSessions"`
	CompletedGoals   int    `json:"completedGoals"`
	UpcomingSessions int    `json:"upcomingSessions"`
	CoachName        string `json:"coachName"`
}

type teamService struct {
	idp           IdentityProvider
	users         db.UserRepository
	subscriptions db.SubscriptionRepository
	publisher     events.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewTeamService creates a TeamService.
func NewTeamService(
	idp IdentityProvider,
	users db.UserRepository,
	subscriptions db.SubscriptionRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) TeamService {
	return &teamService{
		idp:           idp,
		users:         users,
		subscriptions: subscriptions,
		publisher:     publisher,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *teamService) ListSubcoachesForCoach(ctx context.Context, coachID string) ([]*models.User, error) {
	users, err := s.users.ListByCoach(ctx, coachID, models.RoleSubcoach)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	return users, nil
}

func (s *teamService) ListCoacheesForCoach(ctx context.Context, coachID string) ([]*models.User, error) {
	users, err := s.users.ListByCoach(ctx, coachID, models.RoleCoachee)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	return users, nil
}

// ListCoacheesForSubcoach returns the coachees of the subcoach's coach that are assigned to it.
func (s *teamService) ListCoacheesForSubcoach(ctx context.Context, subcoach *models.User) ([]*models.User, error) {
	if subcoach.CoachID == "" {
		return nil, newError(ErrForbidden, msgCoachNotAssigned, nil)
	}
	users, err := s.users.ListBySubcoach(ctx, subcoach.CoachID, subcoach.ID)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	return users, nil
}

// CreateSubcoach creates a login for the subcoach and its user document under the coach.
// The password only reaches the identity provider.
func (s *teamService) CreateSubcoach(ctx context.Context, coachID string, in NewSubcoachInput) (*models.User, error) {
	if anyBlank(in.Email, in.Password, in.Nome, in.Cognome) {
		return nil, validationError(MsgRequiredFields)
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError(MsgPasswordTooShort)
	}
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, validationError(MsgInvalidEmail)
	}

	coach, err := s.coach(ctx, coachID, MsgAddSubcoachFailed)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, coachID, models.RoleSubcoach, MsgAddSubcoachFailed); err != nil {
		return nil, err
	}

	nome, cognome := strings.TrimSpace(in.Nome), strings.TrimSpace(in.Cognome)
	uid, err := s.idp.CreateUser(ctx, email, in.Password, nome+" "+cognome)
	if err != nil {
		return nil, identityCreateError(err, MsgAddSubcoachFailed)
	}

	ts := s.now()
	user := &models.User{
		ID:        uid,
		Email:     email,
		Role:      models.RoleSubcoach,
		Nome:      nome,
		Cognome:   cognome,
		CoachID:   coachID,
		Status:    models.UserStatusActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if delErr := s.idp.DeleteUser(ctx, uid); delErr != nil {
			s.logger.Error("Rollback of subcoach identity failed", zap.String("uid", uid), zap.Error(delErr))
		}
		return nil, failed(MsgAddSubcoachFailed, err)
	}

	s.logger.Info("Subcoach created", zap.String("uid", uid), zap.String("coachID", coachID))
	publish(ctx, s.publisher, s.logger, events.SubcoachCreated{
		UserID:    uid,
		CoachID:   coachID,
		CoachName: coach.FullName(),
		Email:     email,
		Nome:      nome,
	})
	return user, nil
}

// CreateCoachee stores a coachee under the coach. Coachees have no login.
func (s *teamService) CreateCoachee(ctx context.Context, coachID string, in NewCoacheeInput) (*models.User, error) {
	if anyBlank(in.Email, in.Nome, in.Cognome) {
		return nil, validationError(MsgRequiredFields)
	}
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, validationError(MsgInvalidEmail)
	}

	coach, err := s.coach(ctx, coachID, MsgAddCoacheeFailed)
	if err != nil {
		return nil, err
	}
	subcoachID := strings.TrimSpace(in.SubcoachID)
	if subcoachID != "" {
		if err := s.checkSubcoach(ctx, coachID, subcoachID); err != nil {
			return nil, err
		}
	}
	if err := s.checkCapacity(ctx, coachID, models.RoleCoachee, MsgAddCoacheeFailed); err != nil {
		return nil, err
	}

	ts := s.now()
	user := &models.User{
		Email:      email,
		Role:       models.RoleCoachee,
		Nome:       strings.TrimSpace(in.Nome),
		Cognome:    strings.TrimSpace(in.Cognome),
		CoachID:    coachID,
		SubcoachID: subcoachID,
		Status:     models.UserStatusActive,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if _, err := s.users.CreateWithAutoID(ctx, user); err != nil {
		return nil, failed(MsgAddCoacheeFailed, err)
	}

	s.logger.Info("Coachee created", zap.String("id", user.ID), zap.String("coachID", coachID))
	publish(ctx, s.publisher, s.logger, events.CoacheeCreated{
		UserID:     user.ID,
		CoachID:    coachID,
		CoachName:  coach.FullName(),
		SubcoachID: subcoachID,
		Email:      email,
		Nome:       user.Nome,
	})
	return user, nil
}

func (s *teamService) CoachDashboard(ctx context.Context, coachID string) (*CoachStats, error) {
	coachees, err := s.users.CountByCoach(ctx, coachID, models.RoleCoachee)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	subcoaches, err := s.users.CountByCoach(ctx, coachID, models.RoleSubcoach)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	stats := &CoachStats{TotalCoachees: coachees, TotalSubcoaches: subcoaches}

	sub, err := s.subscriptions.GetByID(ctx, coachID)
	switch {
	case err == nil:
		stats.MaxCoachee, stats.MaxSubcoach = sub.MaxCoachee, sub.MaxSubcoach
	case !errors.Is(err, db.ErrNotFound):
		return nil, failed(msgLoadFailed, err)
	}
	return stats, nil
}

func (s *teamService) SubcoachDashboard(ctx context.Context, subcoach *models.User) (*SubcoachStats, error) {
	coachees, err := s.ListCoacheesForSubcoach(ctx, subcoach)
	if err != nil {
		return nil, err
	}
	return &SubcoachStats{AssignedCoachees: len(coachees), CoachName: s.coachName(ctx, subcoach.CoachID)}, nil
}

func (s *teamService) CoacheeDashboard(ctx context.Context, coachee *models.User) (*CoacheeStats, error) {
	return &CoacheeStats{CoachName: s.coachName(ctx, coachee.CoachID)}, nil
}

func (s *teamService) coachName(ctx context.Context, coachID string) string {
	if coachID == "" {
		return ""
	}
	coach, err := s.users.GetByID(ctx, coachID)
	if err != nil {
		s.logger.Warn("Owning coach lookup failed", zap.String("coachID", coachID), zap.Error(err))
		return ""
	}
	return coach.FullName()
}

func (s *teamService) coach(ctx context.Context, coachID, failMsg string) (*models.User, error) {
	coach, err := s.users.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, msgCoachNotFound, err)
		}
		return nil, failed(failMsg, err)
	}
	if coach.Role != models.RoleCoach {
		return nil, newError(ErrNotFound, msgCoachNotFound, nil)
	}
	return coach, nil
}

// checkSubcoach enforces that a coachee is only assigned to a subcoach of the same coach.
func (s *teamService) checkSubcoach(ctx context.Context, coachID, subcoachID string) error {
	subcoach, err := s.users.GetByID(ctx, subcoachID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return newError(ErrValidation, msgInvalidSubcoach, err)
		}
		return failed(MsgAddCoacheeFailed, err)
	}
	if subcoach.Role != models.RoleSubcoach || subcoach.CoachID != coachID {
		return validationError(msgInvalidSubcoach)
	}
	return nil
}

// checkCapacity rejects a new member when the coach's subscription is not active or the
// plan limit for role is already used up.
func (s *teamService) checkCapacity(ctx context.Context, coachID string, role models.Role, failMsg string) error {
	sub, err := s.subscriptions.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return newError(ErrInactivePlan, msgInactivePlan, err)
		}
		return failed(failMsg, err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		return newError(ErrInactivePlan, msgInactivePlan, nil)
	}

	limit, limitMsg := sub.MaxCoachee, msgCoacheeLimit
	if role == models.RoleSubcoach {
		limit, limitMsg = sub.MaxSubcoach, msgSubcoachLimit
	}
	count, err := s.users.CountByCoach(ctx, coachID, role)
	if err != nil {
		return failed(failMsg, err)
	}
	if count >= limit {
		s.logger.Info("Plan limit reached",
			zap.String("coachID", coachID),
			zap.String("role", string(role)),
			zap.Int("count", count),
			zap.Int("limit", limit),
		)
		return newError(ErrPlanLimitReached, limitMsg, nil)
	}
	return nil
}

// identityCreateError keeps the provider message for duplicates and bad input and
// reports everything else under failMsg.
func identityCreateError(err error, failMsg string) *Error {
	translated := translateAuthError(FlowRegister, err)
	if errors.Is(translated, ErrConflict) || errors.Is(translated, ErrValidation) {
		return translated
	}
	return newError(translated.Kind, failMsg, err)
}
