package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("test-secret", "session-1", "mobile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateSessionToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("expected session id %q, got %q", "session-1", claims.SessionID)
	}
	if claims.Platform != "mobile" {
		t.Errorf("expected platform %q, got %q", "mobile", claims.Platform)
	}
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	token, _ := GenerateSessionToken("secret-a", "session-1", "desktop")
	if _, err := ValidateSessionToken("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestValidateSessionToken_Expired(t *testing.T) {
	claims := &Claims{
		SessionID: "session-1",
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if _, err := ValidateSessionToken("test-secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateSessionToken_WrongType(t *testing.T) {
	claims := &Claims{
		SessionID: "session-1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if _, err := ValidateSessionToken("test-secret", token); err == nil {
		t.Fatal("expected error for non-session token")
	}
}

func TestValidateSessionToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{SessionID: "session-1", TokenType: sessionTokenType}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)

	if _, err := ValidateSessionToken("test-secret", token); err == nil {
		t.Fatal("expected error for unsigned token")
	}
}
