// Command admin holds one-off maintenance tasks run against the production project.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coachgest-backend/internal/config"
	"coachgest-backend/internal/core"
	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/firebase"
	"coachgest-backend/internal/identity"
	"coachgest-backend/internal/logger"
	"coachgest-backend/internal/models"
	"coachgest-backend/pkg/cache"
)

var rootCmd = &cobra.Command{
	Use:           "coachgest-admin",
	Short:         "CoachGest maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if os.Getenv("GIN_MODE") != "release" {
			_ = godotenv.Load()
		}
	},
}

var superAdminFlags core.SuperAdminInput

var createSuperAdminCmd = &cobra.Command{
	Use:   "create-super-admin",
	Short: "Create the super admin account",
	Long: `Create the Firebase Auth identity and the users document of a super admin.

Running it again for the same email is a no-op.

Example:
  coachgest-admin create-super-admin --email admin@coachgest.it --password '...'`,
	RunE: runCreateSuperAdmin,
}

var resetCatalogCmd = &cobra.Command{
	Use:   "reset-catalog",
	Short: "Overwrite the plan catalog with the built-in defaults",
	RunE:  runResetCatalog,
}

func init() {
	f := createSuperAdminCmd.Flags()
	f.StringVar(&superAdminFlags.Email, "email", "", "administrator email (required)")
	f.StringVar(&superAdminFlags.Password, "password", "", "password, only used when the identity does not exist yet")
	f.StringVar(&superAdminFlags.Nome, "nome", "Super", "first name")
	f.StringVar(&superAdminFlags.Cognome, "cognome", "Admin", "last name")
	_ = createSuperAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(createSuperAdminCmd, resetCatalogCmd)
}

type deps struct {
	logger  *zap.Logger
	fb      *firebase.Clients
	redis   *cache.RedisCache
	cfg     *config.Config
	catalog core.CatalogService
}

// setup loads the configuration and opens Firebase. withCache also connects to the Redis
// instance the servers use, so that catalog writes invalidate their cached copy.
func setup(cmd *cobra.Command, withCache bool) (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	fb, err := firebase.NewClients(cmd.Context(), cfg, appLogger)
	if err != nil {
		return nil, err
	}
	d := &deps{logger: appLogger, fb: fb, cfg: cfg}

	var catalogCache cache.Cache
	if withCache {
		d.redis, err = cache.NewRedisCache(cmd.Context(), cache.NewRedisCacheConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			_ = fb.Close()
			return nil, err
		}
		catalogCache = d.redis
	}
	d.catalog = core.NewCatalogService(db.NewFirestoreConfigRepository(fb.Firestore), catalogCache, cfg.CatalogCacheTTL, appLogger)
	return d, nil
}

func (d *deps) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	_ = d.fb.Close()
}

func runCreateSuperAdmin(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer d.close()

	idp, err := identity.NewFirebaseProvider(cmd.Context(), d.fb.Auth, d.cfg.FirebaseWebAPIKey, d.logger)
	if err != nil {
		return err
	}
	users := db.NewFirestoreUserRepository(d.fb.Firestore)
	subs := db.NewFirestoreSubscriptionRepository(d.fb.Firestore)
	auth := core.NewAuthService(idp, users, subs, d.catalog, events.NopPublisher{}, d.logger)

	user, created, err := auth.EnsureSuperAdmin(cmd.Context(), superAdminFlags)
	if err != nil {
		return fmt.Errorf("create super admin: %s: %w", core.UserMessage(err), err)
	}
	if created {
		fmt.Printf("Super admin %s created (uid %s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("Super admin %s already exists (uid %s)\n", user.Email, user.ID)
	}
	return nil
}

func runResetCatalog(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer d.close()

	catalog, err := resetCatalog(cmd.Context(), d.catalog)
	if err != nil {
		return err
	}
	tiers := make([]string, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		tiers = append(tiers, fmt.Sprintf("%s (%.0f€)", catalog[tier].Name, catalog[tier].Price))
	}
	fmt.Println("Plan catalog reset:", strings.Join(tiers, ", "))
	return nil
}

// resetCatalog stores the default catalog. SaveCatalog also drops the cached copy.
func resetCatalog(ctx context.Context, catalog core.CatalogService) (models.PlanCatalog, error) {
	defaults := catalog.ResetToDefault()
	if err := catalog.SaveCatalog(ctx, defaults); err != nil {
		return nil, fmt.Errorf("reset catalog: %w", err)
	}
	return defaults, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
