package billing

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/memberships"
	"membership-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

func currentMembership(memberID uint) (*memberships.Membership, error) {
	var m memberships.Membership
	err := database.DB.
		Preload("Plan").
		Where("member_id = ? AND status IN ?", memberID,
			[]memberships.Status{memberships.StatusActive, memberships.StatusFrozen}).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembership returns the member's current membership, if any.
func (h *Handler) GetMembership(c *gin.Context) {
	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
		return
	}

	m, err := currentMembership(memberID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"membership": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// CancelMembership flips the subscription to cancel at period end. The member
// keeps access until the paid period runs out.
func (h *Handler) CancelMembership(c *gin.Context) {
	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
		return
	}

	m, err := currentMembership(memberID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active membership to cancel"})
		return
	}

	if _, err := h.provider.SetCancelAtPeriodEnd(c.Request.Context(), m.StripeSubscriptionID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription", "details": err.Error()})
		return
	}

	// The webhook confirms this shortly; updating locally keeps /me honest in
	// the meantime.
	now := time.Now()
	if err := database.DB.Model(&memberships.Membership{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"auto_renew":   false,
			"cancelled_at": now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Membership will end at the current period end",
		"period_end":   m.EndDate,
		"cancelled_at": now,
	})
}

// ResumeMembership clears a pending cancel-at-period-end before it takes
// effect.
func (h *Handler) ResumeMembership(c *gin.Context) {
	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
		return
	}

	m, err := currentMembership(memberID)
	if err != nil || m.CancelledAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pending cancellation to resume"})
		return
	}

	if _, err := h.provider.SetCancelAtPeriodEnd(c.Request.Context(), m.StripeSubscriptionID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resume subscription", "details": err.Error()})
		return
	}

	if err := database.DB.Model(&memberships.Membership{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"auto_renew":   true,
			"cancelled_at": nil,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Membership will renew as usual"})
}

// ChangePlan switches the membership to another plan, prorated by Stripe in
// both directions.
func (h *Handler) ChangePlan(c *gin.Context) {
	var body struct {
		PriceID string `json:"price_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PriceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid price_id"})
		return
	}

	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
		return
	}

	var targetPlan plans.Plan
	if err := database.DB.Where("stripe_price_id = ?", body.PriceID).First(&targetPlan).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target plan not found (run /admin/sync-plans)"})
		return
	}

	m, err := currentMembership(memberID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active membership to change. Use checkout first."})
		return
	}

	if m.StripePriceID == targetPlan.StripePriceID {
		c.JSON(http.StatusOK, gin.H{"message": "Already on this plan"})
		return
	}

	updated, err := h.provider.ChangePrice(c.Request.Context(), m.StripeSubscriptionID, targetPlan.StripePriceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change plan", "details": err.Error()})
		return
	}

	if err := database.DB.Model(&memberships.Membership{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"plan_id":         targetPlan.ID,
			"stripe_price_id": targetPlan.StripePriceID,
			"end_date":        updated.CurrentPeriodEnd,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Plan changed (prorated automatically)",
		"current_period_end": updated.CurrentPeriodEnd,
	})
}
