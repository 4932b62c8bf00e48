package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
	"coachgest-backend/pkg/cache"
)

// Stripe Connect OAuth endpoints.
const (
	StripeAuthorizeURL = "https://connect.stripe.com/oauth/authorize"
	StripeTokenURL     = "https://connect.stripe.com/oauth/token"

	stripeCallbackPath = "/admin/settings/stripe/callback"
	stripeWebhookPath  = "/api/webhooks/stripe"
	stripeScope        = "read_write"
	stripeStatePrefix  = "stripe:state:"
)

var (
	ErrStripeClientIDMissing = errors.New("stripe client id is not configured")
	ErrStripeStateInvalid    = errors.New("stripe oauth state is unknown or expired")
)

const (
	MsgStripeConfigSaved  = "Configurazione salvata con successo"
	MsgStripeConnected    = "Account Stripe collegato con successo"
	MsgStripeDisconnected = "Account Stripe scollegato"

	msgStripeLoadFailed      = "Errore nel caricamento della configurazione"
	msgStripeClientIDMissing = "Inserisci prima il Client ID di Stripe"
	msgStripeCodeMissing     = "Codice di autorizzazione mancante"
	msgStripeConnectFailed   = "Errore durante la connessione con Stripe"
	msgStripeStateInvalid    = "Richiesta di autorizzazione non valida o scaduta"
	msgStripeInvalidMode     = "Modalità non valida"
)

// StripeSettingsInput is the admin form for the Stripe configuration.
type StripeSettingsInput struct {
	PublicKey     string            `json:"publicKey"`
	ClientID      string            `json:"clientId"`
	Mode          models.StripeMode `json:"mode"`
	WebhookSecret string            `json:"webhookSecret"`
}

// StripeTokens is the result of a Connect authorization code exchange.
type StripeTokens struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	Livemode     bool
}

// TokenExchanger talks to the Stripe Connect OAuth API.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*StripeTokens, error)
	Deauthorize(ctx context.Context, clientID, accountID string) error
}

// SecretBox encrypts secrets before they are stored.
type SecretBox interface {
	Encrypt(plainText string) (string, error)
	Decrypt(encoded string) (string, error)
}

// StripeServiceConfig holds the settings of the Connect handshake.
type StripeServiceConfig struct {
	// ClientOrigin is the SPA origin, without trailing slash. The redirect URI is built from it.
	ClientOrigin string
	StateTTL     time.Duration
}

type stripeService struct {
	config    db.ConfigRepository
	states    cache.Cache
	exchanger TokenExchanger
	secrets   SecretBox
	publisher events.Publisher
	cfg       StripeServiceConfig
	logger    *zap.Logger
	now       func() time.Time
	newState  func() string
}

// NewStripeService creates a StripeService.
func NewStripeService(
	config db.ConfigRepository,
	states cache.Cache,
	exchanger TokenExchanger,
	secrets SecretBox,
	publisher events.Publisher,
	cfg StripeServiceConfig,
	logger *zap.Logger,
) StripeService {
	cfg.ClientOrigin = strings.TrimRight(cfg.ClientOrigin, "/")
	return &stripeService{
		config:    config,
		states:    states,
		exchanger: exchanger,
		secrets:   secrets,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newState:  uuid.NewString,
	}
}

// GetConfig returns the configuration with the webhook secret in clear, or the defaults
// when nothing has been saved.
func (s *stripeService) GetConfig(ctx context.Context) (*models.StripeConfig, error) {
	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.present(stored)
}

func (s *stripeService) SaveConfig(ctx context.Context, in StripeSettingsInput) (*models.StripeConfig, error) {
	if in.Mode != models.StripeModeTest && in.Mode != models.StripeModeLive {
		return nil, validationError(msgStripeInvalidMode)
	}
	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	secret, err := s.secrets.Encrypt(strings.TrimSpace(in.WebhookSecret))
	if err != nil {
		return nil, failed(MsgSaveFailed, err)
	}
	stored.PublicKey = strings.TrimSpace(in.PublicKey)
	stored.ClientID = strings.TrimSpace(in.ClientID)
	stored.Mode = in.Mode
	stored.WebhookSecret = secret
	stored.UpdatedAt = s.now()

	if err := s.config.SaveStripeConfig(ctx, stored); err != nil {
		return nil, failed(MsgSaveFailed, err)
	}
	s.logger.Info("Stripe configuration saved", zap.String("mode", string(in.Mode)))
	return s.present(stored)
}

// BuildAuthorizeURL registers a fresh one-time state and returns the Stripe Connect
// authorize URL. Nothing is returned while the client id is empty.
func (s *stripeService) BuildAuthorizeURL(ctx context.Context) (string, error) {
	stored, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if stored.ClientID == "" {
		return "", newError(ErrValidation, msgStripeClientIDMissing, ErrStripeClientIDMissing)
	}

	state := s.newState()
	if err := s.states.Set(ctx, stripeStatePrefix+state, stored.ClientID, s.cfg.StateTTL); err != nil {
		return "", failed(msgStripeConnectFailed, err)
	}
	return s.oauthConfig(stored.ClientID).AuthCodeURL(state), nil
}

// HandleCallback completes the handshake. The state is consumed on first use, so a replayed
// callback fails even when the code is still valid.
func (s *stripeService) HandleCallback(ctx context.Context, code, state string) (*models.StripeConfig, error) {
	if strings.TrimSpace(code) == "" {
		return nil, validationError(msgStripeCodeMissing)
	}
	if state == "" {
		return nil, newError(ErrValidation, msgStripeStateInvalid, ErrStripeStateInvalid)
	}
	if _, err := s.states.Take(ctx, stripeStatePrefix+state); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Stripe callback with unknown state")
			return nil, newError(ErrValidation, msgStripeStateInvalid, ErrStripeStateInvalid)
		}
		return nil, failed(msgStripeConnectFailed, err)
	}

	tokens, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		kind := ErrUpstreamFailure
		if errors.Is(err, ErrUpstreamUnavailable) {
			kind = ErrUpstreamUnavailable
		}
		s.logger.Error("Stripe code exchange failed", zap.Error(err))
		return nil, newError(kind, msgStripeConnectFailed, err)
	}

	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	access, err := s.secrets.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, failed(msgStripeConnectFailed, err)
	}
	refresh, err := s.secrets.Encrypt(tokens.RefreshToken)
	if err != nil {
		return nil, failed(msgStripeConnectFailed, err)
	}
	ts := s.now()
	stored.Connected = true
	stored.AccountID = tokens.AccountID
	stored.AccessToken = access
	stored.RefreshToken = refresh
	stored.ConnectedAt = &ts
	stored.UpdatedAt = ts
	if err := s.config.SaveStripeConfig(ctx, stored); err != nil {
		return nil, failed(msgStripeConnectFailed, err)
	}

	s.logger.Info("Stripe account connected", zap.String("accountID", tokens.AccountID), zap.Bool("livemode", tokens.Livemode))
	publish(ctx, s.publisher, s.logger, events.StripeConnected{AccountID: tokens.AccountID, Mode: stored.Mode})
	return s.present(stored)
}

// Disconnect revokes the platform's access at Stripe and forgets the account. A failed
// revocation is logged and the local state is cleared anyway.
func (s *stripeService) Disconnect(ctx context.Context) (*models.StripeConfig, error) {
	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !stored.Connected {
		return s.present(stored)
	}

	if err := s.exchanger.Deauthorize(ctx, stored.ClientID, stored.AccountID); err != nil {
		s.logger.Warn("Stripe deauthorization failed", zap.String("accountID", stored.AccountID), zap.Error(err))
	}
	stored.Connected = false
	stored.AccountID = ""
	stored.AccessToken = ""
	stored.RefreshToken = ""
	stored.ConnectedAt = nil
	stored.UpdatedAt = s.now()
	if err := s.config.SaveStripeConfig(ctx, stored); err != nil {
		return nil, failed(MsgSaveFailed, err)
	}
	s.logger.Info("Stripe account disconnected")
	return s.present(stored)
}

// WebhookURL is shown in the settings page so the admin can register it at Stripe.
func (s *stripeService) WebhookURL() string {
	return s.cfg.ClientOrigin + stripeWebhookPath
}

func (s *stripeService) oauthConfig(clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  StripeAuthorizeURL,
			TokenURL: StripeTokenURL,
		},
		RedirectURL: s.cfg.ClientOrigin + stripeCallbackPath,
		Scopes:      []string{stripeScope},
	}
}

// load returns the stored document as is, secrets still encrypted.
func (s *stripeService) load(ctx context.Context) (*models.StripeConfig, error) {
	stored, err := s.config.GetStripeConfig(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.DefaultStripeConfig(), nil
		}
		return nil, failed(msgStripeLoadFailed, err)
	}
	return stored, nil
}

func (s *stripeService) present(stored *models.StripeConfig) (*models.StripeConfig, error) {
	out := *stored
	secret, err := s.secrets.Decrypt(stored.WebhookSecret)
	if err != nil {
		return nil, failed(msgStripeLoadFailed, err)
	}
	out.WebhookSecret = secret
	out.AccessToken = ""
	out.RefreshToken = ""
	return &out, nil
}
