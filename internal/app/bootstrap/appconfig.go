// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging level, CORS); AppConfig is
// everything specific to TaskCamp.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Token configuration
	AccessTokenSecret  string        // HMAC secret for access tokens
	AccessTokenExpiry  time.Duration // Access token lifetime (short)
	RefreshTokenSecret string        // HMAC secret for refresh tokens
	RefreshTokenExpiry time.Duration // Refresh token lifetime (long)
	TempTokenExpiry    time.Duration // One-shot email token lifetime

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (blank logs mail instead of sending)
	MailSMTPPort int    // SMTP server port
	MailSMTPUser string // SMTP username (empty for unauthenticated relays)
	MailSMTPPass string // SMTP password
	MailFrom     string // From address (e.g., "TaskCamp <noreply@taskcamp.example>")

	// Link building
	SiteName                  string // Display name used in emails
	BaseURL                   string // API public origin for verification links
	ForgotPasswordRedirectURL string // Frontend page that collects the new password
}
