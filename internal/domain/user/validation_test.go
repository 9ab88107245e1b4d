package user

import (
	"reflect"
	"testing"
)

func TestJSONFieldName(t *testing.T) {
	type sample struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email,omitempty"`
		Hidden   string `json:"-"`
		Bare     string
	}

	typ := reflect.TypeOf(sample{})

	want := map[string]string{
		"Username": "username",
		"Email":    "email",
		"Hidden":   "Hidden",
		"Bare":     "Bare",
	}

	for goName, jsonName := range want {
		sf, _ := typ.FieldByName(goName)
		if got := JSONFieldName(sf); got != jsonName {
			t.Fatalf("%s: got %q, want %q", goName, got, jsonName)
		}
	}
}

func TestRuleMessage(t *testing.T) {
	tests := []struct {
		rule, param, want string
	}{
		{"required", "", "is required"},
		{"email", "", "must be a valid email address"},
		{"min", "8", "must be at least 8 characters"},
		{"max", "72", "must be at most 72 characters"},
		{"alphanum", "", "failed alphanum validation"},
		{"oneof", "a b", "failed oneof validation (a b)"},
	}

	for _, tt := range tests {
		if got := RuleMessage(tt.rule, tt.param); got != tt.want {
			t.Fatalf("%s(%s): got %q, want %q", tt.rule, tt.param, got, tt.want)
		}
	}
}
