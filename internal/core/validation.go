package core

import (
	"strings"

	"coachgest-backend/internal/models"
)

const minPasswordLength = 6

// Form validation messages.
const (
	MsgRequiredFields   = "Tutti i campi sono obbligatori"
	MsgPasswordMismatch = "Le password non coincidono"
	MsgPasswordTooShort = "La password deve essere di almeno 6 caratteri"
	MsgInvalidEmail     = "Inserisci un indirizzo email valido"
)

func validEmail(email string) bool {
	return models.ValidEmail(email)
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
