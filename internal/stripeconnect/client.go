package stripeconnect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/oauth"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
)

// Config controls the Stripe Connect client and its circuit breaker.
type Config struct {
	SecretKey string
	// Backend overrides the Connect backend. Nil uses the default connect.stripe.com backend.
	Backend stripe.Backend

	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultConfig returns breaker settings suited to the rare OAuth calls of the admin panel.
func DefaultConfig(secretKey string) Config {
	return Config{
		SecretKey:        secretKey,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Client implements core.TokenExchanger on top of the stripe-go OAuth API.
// Calls go through a circuit breaker; while it is open they fail with core.ErrUpstreamUnavailable.
type Client struct {
	api       oauth.Client
	secretKey string
	breaker   *gobreaker.CircuitBreaker[any]
	logger    *zap.Logger
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	backend := cfg.Backend
	if backend == nil {
		backend = stripe.GetBackend(stripe.ConnectBackend)
	}

	settings := gobreaker.Settings{
		Name:        "stripe-connect",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isBreakerSuccess,
	}

	return &Client{
		api:       oauth.Client{B: backend, Key: cfg.SecretKey},
		secretKey: cfg.SecretKey,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
		logger:    logger,
	}
}

// Exchange trades an authorization code for the connected account's tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*core.StripeTokens, error) {
	params := &stripe.OAuthTokenParams{
		GrantType:    stripe.String("authorization_code"),
		Code:         stripe.String(code),
		ClientSecret: stripe.String(c.secretKey),
	}
	params.Context = ctx

	result, err := c.execute(func() (any, error) {
		return c.api.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe oauth token: %w", err)
	}
	token := result.(*stripe.OAuthToken)
	return &core.StripeTokens{
		AccountID:    token.StripeUserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Livemode:     token.Livemode,
	}, nil
}

// Deauthorize revokes the platform's access to accountID.
func (c *Client) Deauthorize(ctx context.Context, clientID, accountID string) error {
	params := &stripe.DeauthorizeParams{
		ClientID:     stripe.String(clientID),
		StripeUserID: stripe.String(accountID),
	}
	params.Context = ctx

	if _, err := c.execute(func() (any, error) {
		return c.api.Del(params)
	}); err != nil {
		return fmt.Errorf("stripe oauth deauthorize: %w", err)
	}
	return nil
}

func (c *Client) execute(fn func() (any, error)) (any, error) {
	result, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	return result, err
}

// isBreakerSuccess keeps client errors such as an expired code from tripping the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500
	}
	return false
}
