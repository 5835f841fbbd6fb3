package middleware

import (
	"net/http"
	"strings"

	"voyager/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware guards the dashboard API. It expects a bearer token
// minted by the admin login and stores the admin's email on the context.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		email, err := utils.SubjectFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("adminEmail", email)
		c.Next()
	}
}
