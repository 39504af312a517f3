package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/service"
)

// AuthHandler handles signup, login and logout
type AuthHandler struct {
	services *service.Services
	cfg      *config.AuthConfig
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cfg *config.AuthConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var input models.SignupInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	user, err := h.services.Auth.Signup(c.Request.Context(), &input)
	if err != nil {
		input.Password = ""
		respondError(c, h.log, err, input)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginPage handles GET /v1/auth/login, where guests are redirected to
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "authentication required: POST username and password to " + loginPath,
		"next":    safeNext(c.Query("next")),
	})
}

// Login handles POST /v1/auth/login. The session token is returned and set
// as a cookie; a safe ?next= target is followed with a redirect.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	session, user, err := h.services.Auth.Login(c.Request.Context(), &input)
	if err != nil {
		input.Password = ""
		respondError(c, h.log, err, input)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, session.Token, maxAge, "/", "", h.cfg.CookieSecure, true)

	if next := safeNext(c.Query("next")); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.services.Auth.Logout(c.Request.Context(), sessionToken(c, h.cfg.CookieName)); err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.Status(http.StatusNoContent)
}
