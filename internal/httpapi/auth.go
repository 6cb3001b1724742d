package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vea-app/vea/internal/types"
)

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const identityKey contextKey = "identity"

// Claims includes standard JWT claims plus the dashboard's user and
// organization ids.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	OrgID  uuid.UUID `json:"org_id"`
	jwt.RegisteredClaims
}

// NewAccessToken signs a JWT for the given identity. Used by tests and by
// deployments that run VEA standalone; in the dashboard the identity
// provider issues the token.
func NewAccessToken(identity types.Identity, secret string, expiration time.Duration) (string, error) {
	claims := Claims{
		UserID: identity.UserID,
		OrgID:  identity.OrgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "vea",
			Subject:   identity.UserID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// IdentityFromContext retrieves the authenticated identity injected by the
// auth middleware.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(types.Identity)
	return identity, ok
}

// AuthMiddleware verifies the bearer token and injects the identity into the
// request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				slog.Debug("token rejected", "error", err)
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					respondError(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, jwt.ErrTokenMalformed):
					respondError(w, http.StatusUnauthorized, "Malformed token")
				default:
					respondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}
			if !token.Valid {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			if claims.UserID == uuid.Nil || claims.OrgID == uuid.Nil {
				respondError(w, http.StatusUnauthorized, "Invalid token claims (missing IDs)")
				return
			}

			identity := types.Identity{UserID: claims.UserID, OrgID: claims.OrgID}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}
