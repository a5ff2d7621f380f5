package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextTenantID = "tenantID"
	ContextRole     = "roleID"
)

// Roles carried in the token. Viewers may query; uploading and re-ingesting
// require an editor or admin token.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// AuthMiddleware validates the bearer token and stores the caller's tenant
// id and role in the request context. Every route behind it is tenant
// scoped; the tenant id always comes from the token, never from the
// request body.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		tenantID, ok := claims["tenant_id"].(string)
		if !ok || tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token is missing the tenant id"})
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = RoleViewer
		}

		c.Set(ContextTenantID, tenantID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// RequireWriter rejects viewer tokens. Used on routes that modify the
// tenant's corpus.
func RequireWriter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) == RoleViewer {
			c.JSON(http.StatusForbidden, gin.H{"error": "this operation requires an editor role"})
			c.Abort()
			return
		}
		c.Next()
	}
}
