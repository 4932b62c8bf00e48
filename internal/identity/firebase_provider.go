package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"coachgest-backend/internal/core"
)

// Firebase ID tokens are always issued with a one hour lifetime.
const idTokenLifetime = time.Hour

// FirebaseProvider implements core.IdentityProvider with the Admin SDK for user management
// and the Identity Toolkit REST API for password sign-in, which the Admin SDK does not offer.
type FirebaseProvider struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
	logger  *zap.Logger
}

// NewFirebaseProvider creates the provider. apiKey is the project's Web API key.
func NewFirebaseProvider(ctx context.Context, authClient *auth.Client, apiKey string, logger *zap.Logger, opts ...option.ClientOption) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase web API key is required for password sign-in")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	toolkit, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	return &FirebaseProvider{auth: authClient, toolkit: toolkit, logger: logger}, nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		code := adminErrorCode(err)
		if code != core.CodeIDTokenExpired {
			code = core.CodeInvalidIDToken
		}
		return "", &core.AuthError{Code: code, Err: err}
	}
	return token.UID, nil
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*core.SignInResult, error) {
	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if code := signInErrorCode(apiErr.Message); code != "" {
				return nil, &core.AuthError{Code: code, Err: err}
			}
		}
		p.logger.Error("Password sign-in failed", zap.Error(err))
		return nil, fmt.Errorf("verifyPassword: %w", err)
	}
	return &core.SignInResult{
		UID:          resp.LocalId,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    idTokenLifetime,
	}, nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		params = params.DisplayName(displayName)
	}
	u, err := p.auth.CreateUser(ctx, params)
	if err != nil {
		return "", wrapAdminError(err)
	}
	return u.UID, nil
}

func (p *FirebaseProvider) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := p.auth.GetUserByEmail(ctx, email)
	if err != nil {
		return "", wrapAdminError(err)
	}
	return u.UID, nil
}

func (p *FirebaseProvider) UpdatePassword(ctx context.Context, uid, password string) error {
	if _, err := p.auth.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password)); err != nil {
		return wrapAdminError(err)
	}
	return nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	return wrapAdminError(p.auth.DeleteUser(ctx, uid))
}

func (p *FirebaseProvider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return wrapAdminError(p.auth.RevokeRefreshTokens(ctx, uid))
}

func adminErrorCode(err error) string {
	switch {
	case auth.IsIDTokenExpired(err):
		return core.CodeIDTokenExpired
	case auth.IsIDTokenInvalid(err):
		return core.CodeInvalidIDToken
	case auth.IsEmailAlreadyExists(err):
		return core.CodeEmailAlreadyInUse
	case auth.IsUserNotFound(err):
		return core.CodeUserNotFound
	}
	return ""
}

// wrapAdminError returns a *core.AuthError for known Admin SDK failures and err unchanged otherwise.
func wrapAdminError(err error) error {
	if err == nil {
		return nil
	}
	if code := adminErrorCode(err); code != "" {
		return &core.AuthError{Code: code, Err: err}
	}
	return err
}

var signInCodes = map[string]string{
	"EMAIL_NOT_FOUND":             core.CodeUserNotFound,
	"INVALID_PASSWORD":            core.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   core.CodeInvalidCredential,
	"USER_DISABLED":               core.CodeUserDisabled,
	"INVALID_EMAIL":               core.CodeInvalidEmail,
	"MISSING_PASSWORD":            core.CodeWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": core.CodeTooManyRequests,
	"PASSWORD_LOGIN_DISABLED":     core.CodeOperationNotAllowed,
	"OPERATION_NOT_ALLOWED":       core.CodeOperationNotAllowed,
}

// signInErrorCode maps an Identity Toolkit error message such as
// "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled"
// to a Firebase Auth code.
func signInErrorCode(message string) string {
	reason, _, _ := strings.Cut(message, " : ")
	return signInCodes[strings.TrimSpace(reason)]
}
