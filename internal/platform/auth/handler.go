package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// TokenResponse is the OAuth2 password-grant response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Handler serves token issuance.
type Handler struct {
	users  *UserStore
	issuer *TokenIssuer
}

// NewHandler creates an auth handler over the given stores.
func NewHandler(users *UserStore, issuer *TokenIssuer) *Handler {
	return &Handler{users: users, issuer: issuer}
}

// RegisterRoutes registers the public token endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/token", h.Token)
}

// Token handles POST /token with OAuth2 password-grant form fields.
func (h *Handler) Token(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.users.Authenticate(username, password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}

	token, expiry, err := h.issuer.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}
	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(expiry).Seconds()),
	})
}
