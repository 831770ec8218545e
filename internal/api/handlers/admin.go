package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/models"
)

// Operator roles. super_admin implies both.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)

// AdminMiddleware authenticates operators with the X-Admin-User and
// X-Admin-Token headers and sets admin_username and admin_account.
func AdminMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin storage unavailable"})
			return
		}

		username := strings.TrimSpace(c.GetHeader("X-Admin-User"))
		token := c.GetHeader("X-Admin-Token")
		if username == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		account, err := admin.ValidateAdminToken(db, username, token, c.ClientIP())
		if err != nil {
			admin.LogAdminAction(db, username, c.ClientIP(), c.FullPath(), "auth_failed", map[string]interface{}{"method": c.Request.Method}, false)
			switch {
			case errors.Is(err, admin.ErrIPNotAllowed):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "IP not allowed"})
			case errors.Is(err, admin.ErrAdminNotFound), errors.Is(err, admin.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			default:
				log.Printf("[ADMIN] Auth error for %s: %v", username, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.Set("admin_username", account.Username)
		c.Set("admin_account", account)
		c.Next()
	}
}

// RequireAdminRole rejects operators that lack role.
func RequireAdminRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("admin_account")
		account, _ := v.(*models.AdminAccount)
		if !ok || account == nil || !admin.HasRole(account, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}

// AdminMe returns the authenticated operator.
func AdminMe(c *gin.Context) {
	v, _ := c.Get("admin_account")
	account, _ := v.(*models.AdminAccount)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":     account.Username,
		"display_name": account.DisplayName,
		"roles":        account.Roles,
	})
}
