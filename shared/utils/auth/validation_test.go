package utils

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"gary@example.com",
		"first.last+tag@sub.example.co",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Fatalf("expected %q to be valid: %v", email, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"not-an-email",
		"missing@domain @space.com",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"gary", "gridiron_gary", "g.g-42", strings.Repeat("a", 50)}
	for _, username := range valid {
		if err := ValidateUsername(username); err != nil {
			t.Fatalf("expected %q to be valid: %v", username, err)
		}
	}

	invalid := []string{"", "ab", "has space", "емейл", strings.Repeat("a", 51)}
	for _, username := range invalid {
		if err := ValidateUsername(username); err == nil {
			t.Fatalf("expected %q to be rejected", username)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"Str0ngpass", "Abcdefg1", "Xx1" + strings.Repeat("a", 120)}
	for _, password := range valid {
		if err := ValidatePassword(password); err != nil {
			t.Fatalf("expected %q to be valid: %v", password, err)
		}
	}

	invalid := []string{
		"",
		"Short1a",                        // too short
		"alllowercase1",                  // no upper
		"ALLUPPERCASE1",                  // no lower
		"NoDigitsHere",                   // no digit
		"Aa1" + strings.Repeat("x", 126), // too long
	}
	for _, password := range invalid {
		if err := ValidatePassword(password); err == nil {
			t.Fatalf("expected %q to be rejected", password)
		}
	}
}
