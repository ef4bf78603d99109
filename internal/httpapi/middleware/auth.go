package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

const SessionIDKey = "token_session_id"

// AuthRequired checks the Bearer token issued by the widget's signer. A nil
// signer disables the check.
func AuthRequired(signer *webhook.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signer == nil {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "missing bearer token",
				"data":    nil,
			})
			return
		}
		claims, err := signer.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40102,
				"message": "invalid token",
				"data":    nil,
			})
			return
		}
		c.Set(SessionIDKey, claims.Subject)
		c.Next()
	}
}
