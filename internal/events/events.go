package events

import (
	"encoding/json"
	"time"

	"coachgest-backend/internal/models"
)

// Routing keys of the domain events.
const (
	TypeCoachRegistered     = "coach.registered"
	TypeSubcoachCreated     = "subcoach.created"
	TypeCoacheeCreated      = "coachee.created"
	TypeSubscriptionChanged = "subscription.plan_changed"
	TypeStripeConnected     = "stripe.connected"
)

// Envelope is the JSON body of every message on the events exchange.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Event is implemented by every payload type.
type Event interface {
	EventType() string
}

type CoachRegistered struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Nome        string    `json:"nome"`
	Cognome     string    `json:"cognome"`
	TrialEndsAt time.Time `json:"trialEndsAt"`
}

func (CoachRegistered) EventType() string { return TypeCoachRegistered }

type SubcoachCreated struct {
	UserID    string `json:"userId"`
	CoachID   string `json:"coachId"`
	CoachName string `json:"coachName"`
	Email     string `json:"email"`
	Nome      string `json:"nome"`
}

func (SubcoachCreated) EventType() string { return TypeSubcoachCreated }

type CoacheeCreated struct {
	UserID     string `json:"userId"`
	CoachID    string `json:"coachId"`
	CoachName  string `json:"coachName"`
	SubcoachID string `json:"subcoachId,omitempty"`
	Email      string `json:"email"`
	Nome       string `json:"nome"`
}

func (CoacheeCreated) EventType() string { return TypeCoacheeCreated }

type SubscriptionPlanChanged struct {
	SubscriptionID string      `json:"subscriptionId"`
	UserID         string      `json:"userId"`
	Email          string      `json:"email,omitempty"`
	From           models.Tier `json:"from"`
	To             models.Tier `json:"to"`
	MaxCoachee     int         `json:"maxCoachee"`
	MaxSubcoach    int         `json:"maxSubcoach"`
}

func (SubscriptionPlanChanged) EventType() string { return TypeSubscriptionChanged }

type StripeConnected struct {
	AccountID string            `json:"accountId"`
	Mode      models.StripeMode `json:"mode"`
}

func (StripeConnected) EventType() string { return TypeStripeConnected }
