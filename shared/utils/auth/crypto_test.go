package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Str0ngpass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Str0ngpass" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("Str0ngpass", hash) {
		t.Fatal("correct password should verify")
	}
	if CheckPasswordHash("WrongPass1", hash) {
		t.Fatal("wrong password should not verify")
	}
}

func TestHashTokenIsStableHex(t *testing.T) {
	first := HashToken("some-opaque-token")
	second := HashToken("some-opaque-token")
	if first != second {
		t.Fatalf("token hash not stable: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected sha-256 hex digest, got %d chars", len(first))
	}
	if HashToken("another-token") == first {
		t.Fatal("different tokens must hash differently")
	}
}

func TestGenerateSessionSecretIsRandom(t *testing.T) {
	first, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	second, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	if first == "" || first == second {
		t.Fatal("secrets must be non-empty and unique")
	}
}
