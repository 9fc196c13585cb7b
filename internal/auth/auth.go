package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/menureel/menureel/internal/httputil"
)

type contextKey string

const claimsKey contextKey = "sessionClaims"

type Handler struct {
	secret string
}

func NewHandler(secret string) *Handler {
	return &Handler{secret: secret}
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	Platform  string `json:"platform"`
}

// CreateSession issues a token for one feed session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	platform := Platform(r.UserAgent())

	token, err := GenerateSessionToken(h.secret, sessionID, platform)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	slog.Info("auth: feed session created", "session_id", sessionID, "platform", platform)
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sessionID,
		Token:     token,
		Platform:  platform,
	})
}

// Middleware accepts the token as a bearer header or a "token" query
// parameter; browsers cannot set headers on WebSocket upgrades.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			tokenStr = r.URL.Query().Get("token")
		}
		if tokenStr == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		claims, err := ValidateSessionToken(h.secret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// Platform classifies a user agent as "mobile", "desktop" or "bot".
func Platform(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
