package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/config"
	"github.com/yourusername/shipledger/middleware"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves the single operator login configured through
// APP_USERNAME and APP_PASSWORD.
type AuthHandler struct {
	cfg          *config.Config
	passwordHash []byte
}

// NewAuthHandler hashes the configured password once so logins never
// compare plaintext.
func NewAuthHandler(cfg *config.Config) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash operator password: %w", err)
	}
	return &AuthHandler{
		cfg:          cfg,
		passwordHash: hash,
	}, nil
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshToken request body
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// bcrypt runs even on a username mismatch so both paths take as long.
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) == nil
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password", "code": "InvalidCredentials"})
		return
	}

	h.issueTokens(c, h.cfg.Username)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := middleware.ParseToken(req.RefreshToken, h.cfg.JWTRefreshSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token", "code": "InvalidToken"})
		return
	}

	// The operator may have been renamed since the token was issued.
	if subtle.ConstantTimeCompare([]byte(claims.Username), []byte(h.cfg.Username)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	h.issueTokens(c, claims.Username)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": c.GetString(middleware.UsernameKey)})
}

func (h *AuthHandler) issueTokens(c *gin.Context, username string) {
	accessToken, err := middleware.GenerateToken(username, h.cfg.JWTSecret, middleware.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	refreshToken, err := middleware.GenerateToken(username, h.cfg.JWTRefreshSecret, middleware.RefreshTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(middleware.AccessTokenTTL.Seconds()),
	})
}
