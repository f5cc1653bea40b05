package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/models"
)

// Claims extends jwt.RegisteredClaims with application-specific fields.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWT returns an Echo middleware that validates the Authorization header
// token using the provided signing key, then re-validates the user against
// the store so tokens for deleted users stop working immediately.
func JWT(key []byte, db *bun.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Authorization")
			if token == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil {
				if err == jwt.ErrSignatureInvalid {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token signature")
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			if !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			exists, err := db.NewSelect().Model((*models.User)(nil)).
				Where("username = ?", claims.Username).
				Exists(c.Request().Context())
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if !exists {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			c.Set("username", claims.Username)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// RequireRole returns middleware that rejects requests whose token role is
// not in the allowed set. Admin always passes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == models.RoleAdmin || allowed[role] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
