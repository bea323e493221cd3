package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Skotchmaster/finportal/internal/models"
)

// registrationRoles are the roles a self-registered account may start with.
var registrationRoles = []string{models.RoleClient, models.RoleEmployee}

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`

	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	Pool        PoolConfig

	JWTSecret                 string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL                  time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	RevocationCleanupInterval time.Duration `env:"REVOCATION_CLEANUP_INTERVAL" env-default:"1m"`
	PublicPaths               []string      `env:"PUBLIC_PATHS" env-default:"/,/auth/login,/auth/register,/auth/refresh,/auth/validate,/public,/health"`

	DefaultRole string `env:"DEFAULT_ROLE" env-default:"CLIENT"`
	BcryptCost  int    `env:"BCRYPT_COST" env-default:"10"`

	LoginRatePerSecond float64 `env:"LOGIN_RATE_PER_SECOND" env-default:"5"`
	LoginRateBurst     int     `env:"LOGIN_RATE_BURST" env-default:"10"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"auth_events"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RevocationCleanupInterval <= 0 {
		return fmt.Errorf("REVOCATION_CLEANUP_INTERVAL must be positive")
	}

	c.DefaultRole = strings.ToUpper(strings.TrimSpace(c.DefaultRole))
	if !slices.Contains(registrationRoles, c.DefaultRole) {
		return fmt.Errorf("DEFAULT_ROLE must be one of %s, got %q", strings.Join(registrationRoles, ", "), c.DefaultRole)
	}

	if err := c.Pool.validate(); err != nil {
		return err
	}
	return nil
}
