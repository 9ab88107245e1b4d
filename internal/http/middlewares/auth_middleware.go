package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt  TokenVerifier
	prom *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, prom: prom}
}

// RequireAuth ends every request in one of two states: rejected, or
// forwarded with the verified identity attached.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromHeader(c.GetHeader("Authorization"))
		if raw == "" {
			m.prom.ObserveTokenCheck("missing")
			abortWithError(c, http.StatusUnauthorized, "access_denied", "Access denied")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			result := "invalid"
			if errors.Is(err, auth.ErrExpiredToken) {
				result = "expired"
			}
			m.prom.ObserveTokenCheck(result)

			// expired and invalid look the same to the caller
			abortWithError(c, http.StatusForbidden, "forbidden", "Invalid token")
			return
		}

		m.prom.ObserveTokenCheck("authorized")

		c.Set(ctxUserIDKey, claims.UserID)

		ctx := context.WithValue(c.Request.Context(), KeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, KeyTokenID, claims.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// tokenFromHeader accepts "Bearer <token>" and a bare "<token>".
func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)

	scheme, rest, found := strings.Cut(header, " ")
	if strings.EqualFold(scheme, "Bearer") {
		if !found {
			return ""
		}
		return strings.TrimSpace(rest)
	}

	return header
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
