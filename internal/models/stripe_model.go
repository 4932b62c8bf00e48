package models

import "time"

// StripeMode selects the Stripe key set in use.
type StripeMode string

const (
	StripeModeTest StripeMode = "test"
	StripeModeLive StripeMode = "live"
)

// StripeConfig is the singleton document config/stripe.
// The webhook secret and OAuth tokens are stored encrypted; the service layer decrypts them.
type StripeConfig struct {
	PublicKey     string     `json:"publicKey" firestore:"publicKey"`
	ClientID      string     `json:"clientId" firestore:"clientId"`
	Mode          StripeMode `json:"mode" firestore:"mode" validate:"required,oneof=test live"`
	WebhookSecret string     `json:"webhookSecret" firestore:"webhookSecret"`
	Connected     bool       `json:"connected" firestore:"connected"`
	AccountID     string     `json:"accountId,omitempty" firestore:"accountId,omitempty"`

	AccessToken  string     `json:"-" firestore:"accessToken,omitempty"`
	RefreshToken string     `json:"-" firestore:"refreshToken,omitempty"`
	ConnectedAt  *time.Time `json:"connectedAt,omitempty" firestore:"connectedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// DefaultStripeConfig is the configuration used before anything has been saved.
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{Mode: StripeModeTest}
}
