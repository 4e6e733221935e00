package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const ctxKeyCallerID ctxKey = iota

// TokenManager issues and validates HS256 JWTs identifying an API caller,
// grounded on the teacher's internal/auth.TokenManager signing/parsing
// shape with the claim-encryption layer dropped: API callers carry no PII
// worth encrypting, only a caller id used for session scoping.
type TokenManager struct {
	signingKey []byte
}

// NewTokenManager wraps signingKey for HS256 signing.
func NewTokenManager(signingKey []byte) *TokenManager {
	return &TokenManager{signingKey: signingKey}
}

// GenerateToken issues a token identifying callerID, valid for 24h.
func (tm *TokenManager) GenerateToken(callerID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": callerID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.signingKey)
}

// ValidateToken parses and validates a token, returning its caller id.
func (tm *TokenManager) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims structure")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing subject claim")
	}
	return sub, nil
}

// AuthMiddleware validates a bearer token, checking cookie, Authorization
// header, then query parameter in that order, mirroring the teacher's
// cmd/game-server/api.AuthMiddleware priority (cookie for browsers, header
// for API clients, query param for WebSocket upgrades that can't set
// headers).
func AuthMiddleware(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()

			var token string
			if cookie, err := r.Cookie("planner_token"); err == nil && cookie.Value != "" {
				token = cookie.Value
			} else if h := r.Header.Get("Authorization"); h != "" {
				parts := strings.SplitN(h, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					logger.Warn().Msg("invalid authorization header format")
					respondError(w, http.StatusUnauthorized, "invalid authorization format")
					return
				}
				token = parts[1]
			} else {
				token = r.URL.Query().Get("token")
			}

			if token == "" {
				respondError(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			callerID, err := tm.ValidateToken(token)
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyCallerID, callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyCallerID).(string)
	return id
}
