package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authenticas/authenticas-api/internal/auth"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

const principalKey = "principal"

// PrincipalFrom returns the authenticated principal set by Auth, or nil for
// API-key callers.
func PrincipalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Auth validates the bearer token and attaches the principal to the request.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required. Please provide a valid token.",
			})
			return
		}

		claims, err := auth.ValidateToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token.",
			})
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

// AuthAny accepts either a bearer token or an X-API-Key belonging to an
// active company or retailer. The verification endpoint uses it so both
// operator dashboards and machine integrations can call it.
func AuthAny(secret []byte, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if claims, err := auth.ValidateToken(token, secret); err == nil {
				c.Set(principalKey, claims.Principal())
				c.Next()
				return
			}
		}

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			company, err := store.FindOneBy(s, store.Companies, func(co models.Company) bool {
				return co.APIKey == apiKey && co.IsActive
			})
			if err == nil && company != nil {
				c.Next()
				return
			}

			retailer, err := store.FindOneBy(s, store.Retailers, func(r models.Retailer) bool {
				return r.APIKey == apiKey && r.IsActive
			})
			if err == nil && retailer != nil {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Authentication required. Please provide a valid token or API key.",
		})
	}
}

// RequireRole allows only the listed roles past.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required.",
			})
			return
		}
		for _, role := range allowed {
			if p.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied.",
		})
	}
}
