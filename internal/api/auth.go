package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/auth"
	"github.com/PedroBarbosa73/chat-app/internal/authz"
	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/config"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
	"github.com/PedroBarbosa73/chat-app/internal/repository/postgres"
)

// AuthHandler handles signup, login, and logout. Signup and login are the
// only public endpoints: they are what produce a session token.
type AuthHandler struct {
	users    repository.UserRepository
	grants   authz.Store
	verifier chat.CredentialVerifier
	cfg      *config.Config
	logger   *zap.Logger
}

func NewAuthHandler(users repository.UserRepository, grants authz.Store, verifier chat.CredentialVerifier, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		grants:   grants,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := h.verifier.Hash(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, hash)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already registered"})
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.cfg.JWTSecret, h.cfg.SessionTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token})
}

// Login handles POST /v1/auth/login. The failure body is identical for an
// unknown username and a wrong password so registered handles cannot be
// enumerated.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error("failed to find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if user == nil || !h.verifier.Verify(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.cfg.JWTSecret, h.cfg.SessionTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token})
}

// Logout handles POST /v1/auth/logout. Dropping the session's grants means
// the authorized room set does not outlive the session, whatever the token
// itself does afterwards.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.GetSession(c)

	if err := h.grants.Revoke(c.Request.Context(), session.ID); err != nil {
		h.logger.Error("failed to revoke session grants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
