package handlers

import (
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

const sessionCookieExpiry = 5 * 24 * time.Hour

type AuthHandler struct {
	authClient *auth.Client
	db         *gorm.DB
}

func NewAuthHandler(authClient *auth.Client, db *gorm.DB) *AuthHandler {
	return &AuthHandler{authClient: authClient, db: db}
}

type loginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// HandleLogin exchanges a Firebase ID token for a long-lived session cookie.
// The client obtains the ID token via the Firebase web SDK; roles come from
// the local staff record, not from Firebase.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.authClient == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	decoded, err := h.authClient.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	cookieValue, err := h.authClient.SessionCookie(ctx, req.IDToken, sessionCookieExpiry)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "failed to create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    cookieValue,
		MaxAge:   int(sessionCookieExpiry.Seconds()),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	// Return the linked staff account so the client can adapt its UI
	email, _ := decoded.Claims["email"].(string)
	var user models.User
	if email != "" {
		h.db.Where("email = ? AND is_active = ?", email, true).First(&user)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"uid":   decoded.UID,
		"email": email,
		"name":  user.Name,
		"role":  user.Role,
	})
}

// HandleLogout revokes the session server-side and clears the cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	cookie, err := c.Cookie("session")
	if err == nil && cookie.Value != "" && h.authClient != nil {
		if decoded, err := h.authClient.VerifySessionCookie(c.Request().Context(), cookie.Value); err == nil {
			h.authClient.RevokeRefreshTokens(c.Request().Context(), decoded.UID)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// HandleMe returns the authenticated staff account
func (h *AuthHandler) HandleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"uid":   getStringFromContext(c, "userUID"),
		"email": getStringFromContext(c, "userEmail"),
		"name":  getStringFromContext(c, "userName"),
		"role":  currentUserRole(c),
	})
}
