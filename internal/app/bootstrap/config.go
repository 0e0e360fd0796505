// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devAccessSecret  = "dev-only-access-secret-change-me"
	devRefreshSecret = "dev-only-refresh-secret-change-me"
)

// appConfigKeys defines the configuration keys for TaskCamp.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, access_token_secret, etc.
//   - Environment variables: TASKCAMP_MONGO_URI, TASKCAMP_ACCESS_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --access_token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskcamp", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Token configuration
	{Name: "access_token_secret", Default: devAccessSecret, Desc: "HMAC secret for access tokens (must be strong in production)"},
	{Name: "access_token_expiry", Default: "15m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "refresh_token_secret", Default: devRefreshSecret, Desc: "HMAC secret for refresh tokens (must be strong in production)"},
	{Name: "refresh_token_expiry", Default: "720h", Desc: "Refresh token lifetime (e.g., 720h for 30 days)"},
	{Name: "temp_token_expiry", Default: "20m", Desc: "Email verification / password reset token lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "TaskCamp <noreply@taskcamp.example>", Desc: "From address for outgoing mail"},

	// Link building
	{Name: "site_name", Default: "TaskCamp", Desc: "Display name used in emails"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "API public origin for verification links"},
	{Name: "forgot_password_redirect_url", Default: "http://localhost:3000/reset-password", Desc: "Frontend page that collects the new password"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built. Merging
// precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKCAMP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AccessTokenSecret:  appValues.String("access_token_secret"),
		AccessTokenExpiry:  appValues.Duration("access_token_expiry", 15*time.Minute),
		RefreshTokenSecret: appValues.String("refresh_token_secret"),
		RefreshTokenExpiry: appValues.Duration("refresh_token_expiry", 720*time.Hour),
		TempTokenExpiry:    appValues.Duration("temp_token_expiry", 20*time.Minute),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		SiteName:                  appValues.String("site_name"),
		BaseURL:                   appValues.String("base_url"),
		ForgotPasswordRedirectURL: appValues.String("forgot_password_redirect_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// TaskCamp validates the MongoDB URI format to catch configuration errors
// early, and refuses to start in production with the development token
// secrets.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.AccessTokenSecret == devAccessSecret || appCfg.RefreshTokenSecret == devRefreshSecret {
			return fmt.Errorf("production requires access_token_secret and refresh_token_secret to be set")
		}
	}

	if appCfg.AccessTokenExpiry <= 0 || appCfg.RefreshTokenExpiry <= 0 || appCfg.TempTokenExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive durations")
	}

	return nil
}
