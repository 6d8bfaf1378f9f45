package middleware

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

// parseToken validates the bearer token and returns its claims.
func parseToken(authHeader string) (jwt.MapClaims, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid Authorization format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	if exp, ok := claims["exp"].(float64); ok && time.Now().Unix() > int64(exp) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) bool {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return false
	}
	c.Set("user_id", userID)
	c.Set("email", claims["email"])
	if isAdmin, ok := claims["isAdmin"].(bool); ok {
		c.Set("is_admin", isAdmin)
	} else {
		c.Set("is_admin", false)
	}
	return true
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing token"})
			c.Abort()
			return
		}

		claims, err := parseToken(authHeader)
		if err != nil {
			log.Printf("❌ JWT rejected: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			c.Abort()
			return
		}
		if !setIdentity(c, claims) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth extracts the identity when a valid token is present but lets
// anonymous requests through. Cart and checkout routes use it so guests can
// shop against their session.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if claims, err := parseToken(authHeader); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin guards the admin surface. Must run after AuthRequired.
func RequireAdmin(c *gin.Context) {
	if !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
		c.Abort()
		return
	}
	c.Next()
}
