package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// RequireAuth returns a middleware that verifies Firebase session cookies and
// resolves the matching local staff account. Downstream handlers read
// userID/userRole/userEmail/userUID from the context.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check if Firebase is initialized
			if authClient == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication is not configured")
			}

			// Get the session cookie
			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}

			// Verify the session cookie
			decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				// Invalid session, clear cookie
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set("userUID", decodedToken.UID)
			email, _ := decodedToken.Claims["email"].(string)
			if email != "" {
				c.Set("userEmail", email)
			}

			// Resolve the staff account; authorization is role-based and
			// roles live on the local row, not in Firebase claims.
			if db != nil && email != "" {
				var user models.User
				if err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err == nil {
					c.Set("userID", user.ID)
					c.Set("userRole", user.Role)
					c.Set("userName", user.Name)
				}
			}

			return next(c)
		}
	}
}

// RequireRole gates a route to the given staff roles. Must run after RequireAuth.
func RequireRole(roles ...models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("userRole").(models.UserRole)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "no staff account linked to this login")
			}
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role for this operation")
		}
	}
}
