package api

import (
	"coachgest-backend/internal/access"
	"coachgest-backend/internal/models"
)

// ErrorResponse is the body of every failed request. Error is the Italian message shown to the user.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is used by mutations that report a confirmation banner.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Nome            string `json:"nome"`
	Cognome         string `json:"cognome"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the signed-in user together with the data the SPA shell needs.
type SessionResponse struct {
	User *models.User      `json:"user"`
	Home string            `json:"home"`
	Menu []access.MenuItem `json:"menu"`
}

type MenuResponse struct {
	Items []access.MenuItem `json:"items"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required"`
}

type SetPlanRequest struct {
	Plan models.Tier `json:"plan" binding:"required"`
}

type SetSubscriptionStatusRequest struct {
	Status models.SubscriptionStatus `json:"status" binding:"required"`
}

// StripeSettingsResponse adds the read-only webhook URL to the stored configuration.
type StripeSettingsResponse struct {
	*models.StripeConfig
	WebhookURL string `json:"webhookUrl"`
}

type StripeAuthorizeResponse struct {
	URL string `json:"url"`
}

type StripeCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}
