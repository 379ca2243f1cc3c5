package billing

import (
	"net/http"

	"membership-app/database"
	"membership-app/internal/domain/memberships"

	"github.com/gin-gonic/gin"
)

func GetPaymentHistory(c *gin.Context) {
	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payments []memberships.Payment
	if err := database.DB.
		Preload("Plan").
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}
