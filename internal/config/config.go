package config

import (
	"errors"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort       string `envconfig:"APP_PORT" default:"8080"`
	DBDSN         string `envconfig:"DB_DSN" required:"true"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiresMin int    `envconfig:"JWT_EXPIRES_MIN" default:"10080"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	AppBaseURL      string `envconfig:"APP_BASE_URL"`
	FrontendBaseURL string `envconfig:"FRONTEND_BASE_URL" default:"http://localhost:3000"`
	CORSOrigins     string `envconfig:"CORS_ORIGINS" default:"http://127.0.0.1:3000, http://localhost:3000"`

	GoogleClientID string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleSecret   string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirect string `envconfig:"GOOGLE_REDIRECT_URL"`

	// platform fee used when no active platform_fees row exists
	DefaultFeePercent float64 `envconfig:"DEFAULT_FEE_PERCENT" default:"10"`
	TaxPercent        float64 `envconfig:"TAX_PERCENT" default:"7"`

	// first admin account, created at startup when both are set
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON          bool   `envconfig:"LOG_JSON" default:"false"`
	StaleBookingCron string `envconfig:"STALE_BOOKING_CRON" default:"@every 1h"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return Config{}, errors.New("DB_DSN must not be empty")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return Config{}, errors.New("JWT_SECRET must not be empty")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return Config{}, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	c.AppBaseURL = strings.TrimRight(c.AppBaseURL, "/")
	return c, nil
}

func (c Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != ""
}
