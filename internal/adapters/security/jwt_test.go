package security

import (
	"testing"
	"time"
)

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	v, err := NewJWTVerifier("top-secret", "mesh-auth")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	raw, err := v.Sign("agent-1", "ADMIN", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SubjectID != "agent-1" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()
	v, _ := NewJWTVerifier("top-secret", "mesh-auth")
	other, _ := NewJWTVerifier("other-secret", "mesh-auth")
	wrongIssuer, _ := NewJWTVerifier("top-secret", "someone-else")

	foreign, _ := other.Sign("agent-1", "agent", time.Minute)
	expired, _ := v.Sign("agent-1", "agent", -time.Hour)
	issuer, _ := wrongIssuer.Sign("agent-1", "agent", time.Minute)

	for name, raw := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"wrong issuer": issuer,
	} {
		if _, err := v.Verify(raw); err == nil {
			t.Fatalf("%s: expected verification error", name)
		}
	}
}

func TestDefaultRoleIsAgent(t *testing.T) {
	t.Parallel()
	v, _ := NewJWTVerifier("top-secret", "")
	raw, _ := v.Sign("agent-2", "", time.Minute)
	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != "agent" {
		t.Fatalf("role = %q, want agent", claims.Role)
	}
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	t.Parallel()
	if _, err := NewJWTVerifier(" ", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
