package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/metrics"
	"github.com/legalchicks/coopnet/internal/service/auth"
)

// profileKey is where the auth middleware stores the caller's profile.
const profileKey = "profile"

// CurrentProfile returns the authenticated caller set by the auth middleware.
func CurrentProfile(c *gin.Context) (models.Profile, bool) {
	v, ok := c.Get(profileKey)
	if !ok {
		return models.Profile{}, false
	}
	p, ok := v.(models.Profile)
	return p, ok
}

// SetCurrentProfile stores the authenticated caller for downstream handlers.
func SetCurrentProfile(c *gin.Context, p models.Profile) {
	c.Set(profileKey, p)
}

// AuthHandler handles sign-up, sign-in and magic link endpoints.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp registers a new member account and returns a session.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
		case errors.Is(err, auth.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		default:
			h.logger.Error("sign-up failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create account"})
		}
		metrics.RecordSignIn("password", "failure")
		return
	}

	metrics.RecordSignIn("password", "success")
	c.JSON(http.StatusCreated, session)
}

// SignIn authenticates a member by email and password.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.RecordSignIn("password", "failure")
		// Unknown email and wrong password share one body so the endpoint
		// does not reveal which accounts exist.
		if errors.Is(err, auth.ErrInvalidCredential) || errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.logger.Error("sign-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to sign in"})
		return
	}

	metrics.RecordSignIn("password", "success")
	c.JSON(http.StatusOK, session)
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required"`
}

// RequestMagicLink issues a one-time sign-in link for an existing account.
// The response never reveals whether the email is registered.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	link, err := h.svc.RequestMagicLink(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		h.logger.Error("magic link request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to send sign-in link"})
		return
	}
	if link != "" {
		// Delivery would normally go out by email. Logged for operators
		// until an email provider is wired in.
		h.logger.Info("magic link issued", zap.String("email", req.Email))
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a sign-in link has been sent"})
}

type redeemRequest struct {
	Token string `json:"token" binding:"required"`
}

// RedeemMagicLink exchanges a one-time link token for a session.
func (h *AuthHandler) RedeemMagicLink(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	session, err := h.svc.RedeemMagicLink(c.Request.Context(), req.Token)
	if err != nil {
		metrics.RecordSignIn("magic-link", "failure")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "this sign-in link is invalid or has expired"})
		return
	}

	metrics.RecordSignIn("magic-link", "success")
	c.JSON(http.StatusOK, session)
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, ok := CurrentProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
