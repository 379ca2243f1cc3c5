package billing

import (
	"fmt"
	"net/http"

	"membership-app/database"
	billingcore "membership-app/internal/billing"
	"membership-app/internal/domain/members"
	"membership-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
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

	// allow-list price id
	var plan plans.Plan
	if err := database.DB.Where("stripe_price_id = ?", body.PriceID).First(&plan).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan/price_id"})
		return
	}

	var member members.Member
	if err := database.DB.Where("id = ?", memberID).First(&member).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not found"})
		return
	}

	if !member.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email first"})
		return
	}

	customerID, err := h.customers.Ensure(c.Request.Context(), member.ID, member.Email, member.Name+" "+member.Lastname)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up billing customer"})
		return
	}

	url, err := h.provider.CreateCheckoutSession(c.Request.Context(), billingcore.CheckoutParams{
		CustomerID:        customerID,
		PriceID:           plan.StripePriceID,
		SuccessURL:        h.appURL + "/account",
		CancelURL:         h.appURL + "/account?canceled=1",
		ClientReferenceID: fmt.Sprint(member.ID),
		Metadata: map[string]string{
			"member_id": fmt.Sprint(member.ID),
			"plan_id":   fmt.Sprint(plan.ID),
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	memberID := c.GetUint("member_id")
	if memberID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member not identified"})
		return
	}

	var mapping struct {
		StripeCustomerID string
	}
	err := database.DB.Table("customer_mappings").
		Where("member_id = ?", memberID).
		First(&mapping).Error
	if err != nil || mapping.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No billing customer yet (subscribe first)"})
		return
	}

	url, err := h.provider.CreatePortalSession(c.Request.Context(), mapping.StripeCustomerID, h.appURL+"/account")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
