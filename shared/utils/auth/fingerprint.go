package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintInput carries the client characteristics a session is bound to.
type FingerprintInput struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	IPAddress      string
}

// ComputeFingerprint derives the one-way hash stored on a session at login.
// IP binding is optional: carrier NAT and mobile networks rotate addresses
// mid-session, so including the IP trades hijack detection for false
// lockouts of legitimate roaming clients.
func ComputeFingerprint(in FingerprintInput, includeIP bool) string {
	parts := []string{in.UserAgent, in.AcceptLanguage, in.AcceptEncoding}
	if includeIP {
		parts = append(parts, in.IPAddress)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifyFingerprint recomputes the fingerprint from the current request and
// compares it to the one stored at session creation. A mismatch means the
// session must be destroyed, never downgraded.
func VerifyFingerprint(stored string, in FingerprintInput, includeIP bool) bool {
	return stored == ComputeFingerprint(in, includeIP)
}
