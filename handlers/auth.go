package handlers

import (
	"net/http"
	"strings"
	"time"

	"voyager/config"
	"voyager/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenLifetime = 12 * time.Hour

// AdminLoginHandler exchanges the dashboard credentials for a bearer token.
// There is a single admin identity, configured by email and bcrypt hash; a
// deployment without those set has the dashboard login disabled.
func AdminLoginHandler(c *gin.Context) {
	logger := getLogger(c)

	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	email := config.AppConfig.AdminEmail
	hash := config.AppConfig.AdminPasswordHash
	if email == "" || hash == "" {
		logger.Warn("Admin login attempted but no admin credentials are configured")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin login is not configured"})
		return
	}

	if !strings.EqualFold(strings.TrimSpace(req.Email), email) ||
		bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		logger.Warn("Admin login failed", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(email, adminTokenLifetime)
	if err != nil {
		logger.Error("Failed to mint admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_in": int(adminTokenLifetime.Seconds())})
}
