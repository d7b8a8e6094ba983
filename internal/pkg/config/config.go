package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	HTTP  HTTPConfig
	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	Email EmailConfig
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET, required"`
	// TokenLifetimeDays bounds session tokens issued on login and refresh.
	TokenLifetimeDays int `env:"TOKEN_LIFETIME, default=1"`
	// ServiceTokenTTL bounds tokens from /auth/token; 0 means no expiry.
	ServiceTokenTTL time.Duration `env:"SERVICE_TOKEN_TTL, default=0s"`
	// AndesJWTSecret verifies tokens on the Andes routes. Empty falls back to
	// JWTSecret.
	AndesJWTSecret   string        `env:"ANDES_JWT_SECRET"`
	AppDomain        string        `env:"APP_DOMAIN,        default=http://localhost:4200"`
	RecoveryCooldown time.Duration `env:"RECOVERY_COOLDOWN, default=1m"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT,        default=10s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT,       default=15s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT, default=3s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=recetar"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type EmailConfig struct {
	Host        string        `env:"EMAIL_HOST,         default=smtp.gmail.com"`
	Port        int           `env:"EMAIL_PORT,         default=587"`
	Secure      bool          `env:"EMAIL_SECURE,       default=false"`
	Username    string        `env:"EMAIL_USERNAME"`
	Password    string        `env:"EMAIL_PASSWORD"`
	From        string        `env:"EMAIL_FROM"`
	Timeout     time.Duration `env:"EMAIL_TIMEOUT,      default=30s"`
	MaxAttempts int           `env:"EMAIL_MAX_ATTEMPTS, default=3"`
	Workers     int           `env:"EMAIL_WORKERS,      default=4"`

	// RecoveryTimeout bounds the recovery mail sent while the client waits.
	RecoveryTimeout time.Duration `env:"EMAIL_RECOVERY_TIMEOUT, default=10s"`
}

// SessionTTL converts TokenLifetimeDays into a duration.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.TokenLifetimeDays) * 24 * time.Hour
}

// AndesSecret returns the key used to verify Andes tokens.
func (a AuthConfig) AndesSecret() string {
	if a.AndesJWTSecret != "" {
		return a.AndesJWTSecret
	}
	return a.JWTSecret
}

// FromAddress returns the sender address, defaulting to the SMTP user.
func (e EmailConfig) FromAddress() string {
	if e.From != "" {
		return e.From
	}
	return e.Username
}

// IsDevelopment reports whether the service runs with developer defaults
// such as console logging.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenLifetimeDays <= 0 {
		return nil, fmt.Errorf("TOKEN_LIFETIME must be a positive number of days, got %d", cfg.Auth.TokenLifetimeDays)
	}
	if cfg.Email.RecoveryTimeout >= cfg.HTTP.WriteTimeout {
		return nil, fmt.Errorf("EMAIL_RECOVERY_TIMEOUT (%s) must be below HTTP_WRITE_TIMEOUT (%s)",
			cfg.Email.RecoveryTimeout, cfg.HTTP.WriteTimeout)
	}
	return &cfg, nil
}
