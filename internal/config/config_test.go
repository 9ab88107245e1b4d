package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_URL", "postgres://u:p@db:5432/x?sslmode=disable")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()

	if cfg.Env != "test" {
		t.Fatalf("env: got %q", cfg.Env)
	}
	if cfg.Port != 9090 {
		t.Fatalf("port: got %d", cfg.Port)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/x?sslmode=disable" {
		t.Fatalf("db url: got %q", cfg.DBURL)
	}
	if cfg.JWTTTL() != time.Hour {
		t.Fatalf("ttl: got %s, want 1h", cfg.JWTTTL())
	}
	if cfg.RateLimitPerMinute != 20 {
		t.Fatalf("invalid int should fall back, got %d", cfg.RateLimitPerMinute)
	}
}

func TestBuildDBURL_FromParts(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "alice")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "auth")
	t.Setenv("DB_SSLMODE", "require")

	got := buildDBURL()
	want := "postgres://alice:pw@pg:6543/auth?sslmode=require"

	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	strong := strings.Repeat("s", 48)

	tests := []struct {
		name       string
		cfg        Config
		wantErr    bool
		wantSecret string
	}{
		{
			name:       "dev falls back to dev secret",
			cfg:        Config{Env: "dev", StoreDriver: "memory", JWTTTLMinutes: 60},
			wantSecret: DevJWTSecret,
		},
		{
			name:       "dev keeps configured secret",
			cfg:        Config{Env: "dev", StoreDriver: "postgres", JWTSecret: "mine", JWTTTLMinutes: 60},
			wantSecret: "mine",
		},
		{
			name:    "prod requires secret",
			cfg:     Config{Env: "prod", StoreDriver: "postgres", JWTTTLMinutes: 60},
			wantErr: true,
		},
		{
			name:    "prod rejects dev secret",
			cfg:     Config{Env: "prod", StoreDriver: "postgres", JWTSecret: DevJWTSecret, JWTTTLMinutes: 60},
			wantErr: true,
		},
		{
			name:    "prod rejects short secret",
			cfg:     Config{Env: "prod", StoreDriver: "postgres", JWTSecret: "short", JWTTTLMinutes: 60},
			wantErr: true,
		},
		{
			name:    "prod rejects memory store",
			cfg:     Config{Env: "prod", StoreDriver: "memory", JWTSecret: strong, JWTTTLMinutes: 60},
			wantErr: true,
		},
		{
			name:       "prod accepts strong secret",
			cfg:        Config{Env: "prod", StoreDriver: "postgres", JWTSecret: strong, JWTTTLMinutes: 60},
			wantSecret: strong,
		},
		{
			name:    "non positive ttl",
			cfg:     Config{Env: "dev", StoreDriver: "memory", JWTTTLMinutes: 0},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Env: "dev", StoreDriver: "mongo", JWTTTLMinutes: 60},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate(nil)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.JWTSecret != tt.wantSecret {
				t.Fatalf("secret: got %q, want %q", cfg.JWTSecret, tt.wantSecret)
			}
		})
	}
}
