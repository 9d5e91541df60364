package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const PrincipalContextKey = "principal"

// Auth validates the bearer token and attaches the caller as a Principal.
// The token's "typ" claim is the role discriminator written at issuance
// time, so resolving the caller is a single lookup regardless of which
// user-type collection they live in.
func Auth(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || token == nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		sub, _ := claims["sub"].(string)
		role, _ := claims["typ"].(string)
		id, parseErr := uuid.Parse(sub)
		if parseErr != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(PrincipalContextKey, models.Principal{ID: id, Role: role})
		c.Next()
	}
}

// RequireRole rejects principals whose role does not match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := GetPrincipal(c)
		if err != nil || principal.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller from the gin context.
func GetPrincipal(c *gin.Context) (models.Principal, error) {
	if val, ok := c.Get(PrincipalContextKey); ok {
		if p, ok := val.(models.Principal); ok {
			return p, nil
		}
	}
	return models.Principal{}, fmt.Errorf("principal not found in context")
}
