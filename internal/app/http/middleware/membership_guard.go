package middleware

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/memberships"

	"github.com/gin-gonic/gin"
)

// RequireActiveMembership gates routes that need a paid (or frozen) gym
// membership whose billing period has not run out.
func RequireActiveMembership() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.GetUint("member_id")
		if memberID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
			return
		}

		var m memberships.Membership
		err := database.DB.
			Where("member_id = ? AND status IN ?", memberID,
				[]memberships.Status{memberships.StatusActive, memberships.StatusFrozen}).
			First(&m).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Membership not found or expired",
			})
			return
		}

		if time.Now().After(m.EndDate) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your membership has expired",
			})
			return
		}

		c.Next()
	}
}
