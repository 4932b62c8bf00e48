package core

import (
	"errors"
	"fmt"
)

// Firebase Auth error codes, as reported by the identity provider adapter.
const (
	CodeInvalidEmail        = "auth/invalid-email"
	CodeUserDisabled        = "auth/user-disabled"
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeEmailAlreadyInUse   = "auth/email-already-in-use"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeWeakPassword        = "auth/weak-password"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeInvalidIDToken      = "auth/invalid-id-token"
	CodeIDTokenExpired      = "auth/id-token-expired"
)

// AuthError is returned by IdentityProvider implementations for failures that carry a known code.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthFlow selects the message table used to translate provider error codes.
type AuthFlow string

const (
	FlowLogin      AuthFlow = "login"
	FlowAdminLogin AuthFlow = "admin_login"
	FlowRegister   AuthFlow = "register"
)

type flowMessages struct {
	byCode   map[string]string
	fallback string
}

var authMessages = map[AuthFlow]flowMessages{
	FlowLogin: {
		byCode: map[string]string{
			CodeInvalidEmail:  "Email non valida",
			CodeUserDisabled:  "Account disabilitato",
			CodeUserNotFound:  "Utente non trovato",
			CodeWrongPassword: "Password non corretta",
		},
		fallback: "Errore durante l'accesso",
	},
	FlowAdminLogin: {
		byCode: map[string]string{
			CodeInvalidCredential: "Credenziali non valide. Verifica email e password.",
			CodeUserNotFound:      "Utente amministratore non trovato.",
			CodeWrongPassword:     "Password non corretta.",
		},
		fallback: "Errore durante l'accesso. Riprova più tardi.",
	},
	FlowRegister: {
		byCode: map[string]string{
			CodeEmailAlreadyInUse:   "Questa email è già registrata. Prova ad accedere o usa un'altra email.",
			CodeInvalidEmail:        "Formato email non valido",
			CodeOperationNotAllowed: "La registrazione non è attualmente disponibile",
			CodeWeakPassword:        "La password deve essere più sicura",
		},
		fallback: "Si è verificato un errore durante la registrazione. Riprova più tardi.",
	},
}

// AuthMessage returns the Italian message for code in flow, or the flow's fallback for unmapped codes.
func AuthMessage(flow AuthFlow, code string) string {
	msgs, ok := authMessages[flow]
	if !ok {
		return MsgOperationFailed
	}
	if msg, ok := msgs.byCode[code]; ok {
		return msg
	}
	return msgs.fallback
}

// translateAuthError turns a provider error into a user-facing *Error for flow.
func translateAuthError(flow AuthFlow, err error) *Error {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return newError(ErrUpstreamFailure, AuthMessage(flow, ""), err)
	}
	kind := ErrUnauthenticated
	switch authErr.Code {
	case CodeEmailAlreadyInUse:
		kind = ErrConflict
	case CodeInvalidEmail, CodeWeakPassword:
		kind = ErrValidation
	case CodeOperationNotAllowed, CodeUserDisabled:
		kind = ErrForbidden
	}
	if flow == FlowRegister && kind == ErrUnauthenticated {
		kind = ErrOperationFailed
	}
	return newError(kind, AuthMessage(flow, authErr.Code), err)
}
