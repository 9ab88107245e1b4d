package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is only ever used outside of prod. Validate refuses it in prod.
const DevJWTSecret = "authhub-dev-only-secret-do-not-use"

const minProdSecretLen = 32

type Config struct {
	Env         string
	Port        int
	DBURL       string
	StoreDriver string

	JWTSecret     string
	JWTTTLMinutes int
	BcryptCost    int

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int

	OTELEndpoint string
}

func Load() Config {
	// a missing .env is the normal case outside local dev
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),
		BcryptCost:    getEnvInt("BCRYPT_COST", 0),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// Validate fills dev fallbacks and rejects settings that must never reach prod.
func (c *Config) Validate(log *slog.Logger) error {
	if c.JWTTTLMinutes <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive, got %d", c.JWTTTLMinutes)
	}

	if c.StoreDriver != "postgres" && c.StoreDriver != "memory" {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.IsProd() {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required in prod")
		}
		if c.JWTSecret == DevJWTSecret {
			return errors.New("JWT_SECRET must not be the dev fallback in prod")
		}
		if len(c.JWTSecret) < minProdSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes in prod", minProdSecretLen)
		}
		if c.StoreDriver == "memory" {
			return errors.New("STORE_DRIVER=memory is not allowed in prod")
		}
		return nil
	}

	if c.JWTSecret == "" {
		c.JWTSecret = DevJWTSecret
		if log != nil {
			log.Warn("JWT_SECRET not set, using dev fallback secret", "env", c.Env)
		}
	}

	return nil
}

func buildDBURL() string {
	if url := os.Getenv("DB_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "authhub")
	pass := getEnv("DB_PASSWORD", "authhub")
	name := getEnv("DB_NAME", "authhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Default().Warn("invalid integer env value, using fallback", "key", key, "fallback", fallback)
			return fallback
		}

		return num
	}
	return fallback
}
