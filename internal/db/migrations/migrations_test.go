package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedSchemaDeclaresUniqueConstraints(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00001_create_users.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	sql := string(raw)

	for _, want := range []string{
		"-- +goose Up",
		"-- +goose Down",
		"CONSTRAINT users_username_key UNIQUE (username)",
		"CONSTRAINT users_email_key UNIQUE (email)",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("migration missing %q", want)
		}
	}
}
