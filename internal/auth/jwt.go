package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionTokenDuration = 12 * time.Hour

const sessionTokenType = "feed-session"

type Claims struct {
	SessionID string `json:"sid"`
	Platform  string `json:"platform"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func GenerateSessionToken(secret string, sessionID string, platform string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		Platform:  platform,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateSessionToken(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != sessionTokenType || claims.SessionID == "" {
		return nil, fmt.Errorf("not a feed session token")
	}
	return claims, nil
}
