package auth

import (
	"testing"

	"github.com/spec-kit/waitline/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	staff := &domain.StaffMember{ID: "s-1", MerchantID: "m-1", Role: domain.StaffRoleOwner}

	token, expiresAt, err := tm.GenerateToken(staff)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("empty token or expiry")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.StaffID != "s-1" || claims.MerchantID != "m-1" || claims.Role != domain.StaffRoleOwner {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 30).GenerateToken(&domain.StaffMember{ID: "s-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 30).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret should not parse")
	}
}
