// Package config loads the process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

const (
	defaultPort            = "8080"
	defaultDSN             = "file:taskforge.db?cache=shared&mode=rwc"
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = time.Hour * 24 * 7
	defaultTempTokenTTL    = time.Minute * 20
	defaultIssuer          = "taskforge"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Port  string
	Debug bool

	DatabaseDSN string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	TempTokenTTL       time.Duration
	Issuer             string

	CORSOrigins []string

	ServerBaseURL             string
	ForgotPasswordRedirectURL string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load reads .env when present, then the environment. Missing token secrets
// are a hard startup error.
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may be populated already.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        envOr("PORT", defaultPort),
		Debug:       envBool("DEBUG"),
		DatabaseDSN: envOr("DATABASE_DSN", defaultDSN),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		Issuer:             envOr("TOKEN_ISSUER", defaultIssuer),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGIN")),

		ServerBaseURL:             strings.TrimRight(os.Getenv("SERVER_BASE_URL"), "/"),
		ForgotPasswordRedirectURL: os.Getenv("FORGOT_PASSWORD_REDIRECT_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envOr("MAIL_FROM", "no-reply@taskforge.example.com"),
	}

	var err error
	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", defaultAccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = envDuration("REFRESH_TOKEN_TTL", defaultRefreshTokenTTL); err != nil {
		return nil, err
	}
	if cfg.TempTokenTTL, err = envDuration("TEMP_TOKEN_TTL", defaultTempTokenTTL); err != nil {
		return nil, err
	}

	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, goerrors.New("SMTP_PORT must be a number", goerrors.CategoryBadInput)
		}
		cfg.SMTPPort = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AccessTokenSecret, validation.Required),
		validation.Field(&c.RefreshTokenSecret, validation.Required),
		validation.Field(&c.Port, validation.Required),
	)
}

func (c *Config) GetAccessTokenSecret() string      { return c.AccessTokenSecret }
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenSecret() string     { return c.RefreshTokenSecret }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c *Config) GetIssuer() string                 { return c.Issuer }
func (c *Config) GetTempTokenTTL() time.Duration    { return c.TempTokenTTL }

// GetVerifyEmailURL is the public link base for verification mails. The
// one-time secret gets appended as the last path segment.
func (c *Config) GetVerifyEmailURL() string {
	return c.ServerBaseURL + "/api/v1/auth/verify-email"
}

func (c *Config) GetResetPasswordURL() string { return c.ForgotPasswordRedirectURL }

func (c *Config) GetSMTPHost() string { return c.SMTPHost }
func (c *Config) GetSMTPPort() int    { return c.SMTPPort }
func (c *Config) GetSMTPUser() string { return c.SMTPUser }
func (c *Config) GetSMTPPass() string { return c.SMTPPass }
func (c *Config) GetMailFrom() string { return c.MailFrom }

func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) IsDebug() bool            { return c.Debug }

// SMTPConfigured reports whether an outbound transport was provided.
func (c *Config) SMTPConfigured() bool { return c.SMTPHost != "" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, goerrors.New(key+" must be a duration like 20m or 1h", goerrors.CategoryBadInput)
	}
	return d, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
