package security

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Roles carried in access tokens. Tables get scoped tokens at QR
// provisioning time; operators log in and may run admin operations
// (skip, mark played, remove on behalf, top-up).
const (
	RoleTable    = "table"
	RoleOperator = "operator"
)

const claimsContextKey = "auth_claims"

type Claims struct {
	VenueID string `json:"venue_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Admin reports whether the caller may run operator-only operations.
func (c *Claims) Admin() bool {
	return c.Role == RoleOperator
}

// NewAccessToken signs an HS256 token for a requester. Subject is the
// table ID for patrons or the operator login for staff.
func NewAccessToken(secret, subject, venueID, role string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := Claims{
		VenueID: venueID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// JWTMiddleware validates the Authorization bearer token and stashes the
// parsed claims on the request context.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin gates operator-only routes. Must run after JWTMiddleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil || !claims.Admin() {
				return echo.NewHTTPError(http.StatusForbidden, "operator access required")
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the parsed claims, or nil outside JWTMiddleware.
func ClaimsFrom(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}
