package firebase

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"coachgest-backend/internal/config"
)

// Clients bundles the Firebase Admin clients the service depends on.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

// CredentialsOption resolves the service account credentials from the configuration.
// A nil option means Application Default Credentials.
func CredentialsOption(cfg *config.Config) (option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		return option.WithCredentialsFile(cfg.GoogleApplicationCredentials), nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string: %w", err)
		}
		return option.WithCredentialsJSON(jsonKey), nil
	}
	return nil, nil
}

// NewClients initializes the Firebase Admin SDK and returns Firestore and Auth clients.
func NewClients(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	opt, err := CredentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}

	var app *firebase.App
	if opt != nil {
		app, err = firebase.NewApp(ctx, conf, opt)
	} else {
		logger.Info("Initializing Firebase using Application Default Credentials")
		app, err = firebase.NewApp(ctx, conf)
	}
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase clients initialized", zap.String("projectID", cfg.FirebaseProjectID))
	return &Clients{Firestore: fs, Auth: authClient}, nil
}
