package models

import "time"

// Tier is a subscription level. trial, pro and master are the only tiers stored.
type Tier string

const (
	TierTrial  Tier = "trial"
	TierPro    Tier = "pro"
	TierMaster Tier = "master"
)

// Tiers lists the tiers in ascending order.
var Tiers = []Tier{TierTrial, TierPro, TierMaster}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierTrial || t == TierPro || t == TierMaster
}

// SubscriptionStatus is the state of a coach subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusSuspended, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// TrialDuration is how long the subscription created at registration lasts.
const TrialDuration = 30 * 24 * time.Hour

// Subscription is a document of the "subscriptions" collection, keyed by the coach UID.
type Subscription struct {
	ID          string             `json:"id" firestore:"-"`
	UserID      string             `json:"userId" firestore:"userId" validate:"required"`
	Plan        Tier               `json:"plan" firestore:"plan" validate:"required,oneof=trial pro master"`
	Status      SubscriptionStatus `json:"status" firestore:"status" validate:"required,oneof=active suspended cancelled"`
	StartDate   time.Time          `json:"startDate" firestore:"startDate"`
	EndDate     time.Time          `json:"endDate" firestore:"endDate"`
	MaxCoachee  int                `json:"maxCoachee" firestore:"maxCoachee" validate:"gte=0"`
	MaxSubcoach int                `json:"maxSubcoach" firestore:"maxSubcoach" validate:"gte=0"`
	Features    []string           `json:"features" firestore:"features"`
	CreatedAt   time.Time          `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" firestore:"updatedAt"`
}

// ApplyPlan copies the limits and features of p onto the subscription.
func (s *Subscription) ApplyPlan(p SubscriptionPlan) {
	s.Plan = p.Tier
	s.MaxCoachee = p.Limits.MaxCoachee
	s.MaxSubcoach = p.Limits.MaxSubcoach
	s.Features = append([]string(nil), p.Features...)
}

// Limits bounds how many subcoaches and coachees a coach may own.
type Limits struct {
	MaxSubcoach int `json:"maxSubcoach" firestore:"maxSubcoach" validate:"gte=0"`
	MaxCoachee  int `json:"maxCoachee" firestore:"maxCoachee" validate:"gte=0"`
}

// SubscriptionPlan is one entry of the plan catalog.
type SubscriptionPlan struct {
	ID       string   `json:"id" firestore:"id" validate:"required"`
	Name     string   `json:"name" firestore:"name" validate:"required"`
	Tier     Tier     `json:"tier" firestore:"tier" validate:"required,oneof=trial pro master"`
	Price    float64  `json:"price" firestore:"price" validate:"gte=0"`
	Limits   Limits   `json:"limits" firestore:"limits"`
	Features []string `json:"features" firestore:"features"`
}

// PlanCatalog maps every tier to its plan. It is stored as the single document config/subscriptions.
type PlanCatalog map[Tier]SubscriptionPlan

// Clone returns a deep copy of the catalog.
func (c PlanCatalog) Clone() PlanCatalog {
	out := make(PlanCatalog, len(c))
	for tier, plan := range c {
		plan.Features = append([]string(nil), plan.Features...)
		out[tier] = plan
	}
	return out
}

// DefaultPlanCatalog returns a fresh copy of the built-in catalog used when none is stored.
func DefaultPlanCatalog() PlanCatalog {
	return PlanCatalog{
		TierTrial: {
			ID:     "trial",
			Name:   "Trial",
			Tier:   TierTrial,
			Price:  0,
			Limits: Limits{MaxSubcoach: 1, MaxCoachee: 5},
			Features: []string{
				"Accesso base alla piattaforma",
				"1 subcoach",
				"Fino a 5 coachee",
				"Funzionalità essenziali",
				"Valido per 30 giorni",
			},
		},
		TierPro: {
			ID:     "pro",
			Name:   "Pro",
			Tier:   TierPro,
			Price:  49,
			Limits: Limits{MaxSubcoach: 3, MaxCoachee: 20},
			Features: []string{
				"Tutte le funzionalità Trial",
				"Fino a 3 subcoach",
				"Fino a 20 coachee",
				"Report avanzati",
				"Supporto prioritario",
			},
		},
		TierMaster: {
			ID:     "master",
			Name:   "Master",
			Tier:   TierMaster,
			Price:  99,
			Limits: Limits{MaxSubcoach: 10, MaxCoachee: 50},
			Features: []string{
				"Tutte le funzionalità Pro",
				"Fino a 10 subcoach",
				"Fino a 50 coachee",
				"API personalizzate",
				"Account manager dedicato",
			},
		},
	}
}
