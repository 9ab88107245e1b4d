package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "correct horse" {
		t.Fatalf("hash must not equal plaintext")
	}

	if !h.Verify("correct horse", hash) {
		t.Fatalf("expected original plaintext to verify")
	}
}

func TestBcryptHasher_NearMissesFail(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	nearMisses := []string{
		"password124",
		"Password123",
		"password12",
		"password1234",
		"passwrd123",
		" password123",
		"",
	}

	for _, candidate := range nearMisses {
		if h.Verify(candidate, hash) {
			t.Fatalf("near miss %q must not verify", candidate)
		}
	}
}

func TestBcryptHasher_SaltedPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}

	if a == b {
		t.Fatalf("expected different hashes for equal plaintexts")
	}
	if !h.Verify("same-input", a) || !h.Verify("same-input", b) {
		t.Fatalf("both hashes should verify")
	}
}

func TestBcryptHasher_MalformedHashIsMismatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	if got := NewBcryptHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost 0: got %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewBcryptHasher(99).Cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost 99: got %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewBcryptHasher(bcrypt.MinCost).Cost; got != bcrypt.MinCost {
		t.Fatalf("cost min: got %d", got)
	}
}

func TestHashPasswordAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "hunter2hunter2"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "hunter2hunter3"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
