package models

import "time"

// Role is the access level of a user record.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleCoach      Role = "coach"
	RoleSubcoach   Role = "subcoach"
	RoleCoachee    Role = "coachee"
)

// Roles lists every known role, in privilege order.
var Roles = []Role{RoleSuperAdmin, RoleCoach, RoleSubcoach, RoleCoachee}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

// User is a document of the "users" collection. Its document ID is the Firebase Auth UID,
// except for coachees which have no login and get an auto-generated ID.
type User struct {
	ID         string       `json:"id" firestore:"-"`
	Email      string       `json:"email" firestore:"email" validate:"required,email"`
	Role       Role         `json:"role" firestore:"role" validate:"required,oneof=super_admin coach subcoach coachee"`
	Nome       string       `json:"nome" firestore:"nome"`
	Cognome    string       `json:"cognome" firestore:"cognome"`
	CoachID    string       `json:"coachId,omitempty" firestore:"coachId,omitempty" validate:"required_if=Role subcoach,required_if=Role coachee"`
	SubcoachID string       `json:"subcoachId,omitempty" firestore:"subcoachId,omitempty"`
	Status     UserStatus   `json:"status" firestore:"status" validate:"omitempty,oneof=active suspended"`
	Billing    *BillingData `json:"billingData,omitempty" firestore:"billingData,omitempty"`
	CreatedAt  time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt" firestore:"updatedAt"`
}

// FullName joins nome and cognome.
func (u *User) FullName() string {
	if u.Cognome == "" {
		return u.Nome
	}
	return u.Nome + " " + u.Cognome
}

// BillingData holds the invoicing details of a coach (Italian e-invoicing fields).
type BillingData struct {
	RagioneSociale     string `json:"ragioneSociale" firestore:"ragioneSociale"`
	PartitaIva         string `json:"partitaIva" firestore:"partitaIva"`
	CodiceFiscale      string `json:"codiceFiscale" firestore:"codiceFiscale"`
	Indirizzo          string `json:"indirizzo" firestore:"indirizzo"`
	Cap                string `json:"cap" firestore:"cap"`
	Citta              string `json:"citta" firestore:"citta"`
	Provincia          string `json:"provincia" firestore:"provincia"`
	Pec                string `json:"pec" firestore:"pec" validate:"omitempty,email"`
	CodiceDestinatario string `json:"codiceDestinatario" firestore:"codiceDestinatario" validate:"max=7"`
}
