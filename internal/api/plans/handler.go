package plans

import (
	"net/http"

	"membership-app/database"
	"membership-app/internal/billing"
	"membership-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	provider billing.Provider
}

func NewHandler(provider billing.Provider) *Handler {
	return &Handler{provider: provider}
}

func ListPlans(c *gin.Context) {
	var plansList []plans.Plan
	if err := database.DB.
		Order("price_cents ASC").
		Find(&plansList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, plansList)
}

// SyncPlansFromStripe upserts local plans from the active recurring prices in
// Stripe. Pricing is managed in the Stripe dashboard; this keeps the local
// allow-list in step.
func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	prices, err := h.provider.ListRecurringPrices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices", "details": err.Error()})
		return
	}

	created := 0
	updated := 0

	for _, p := range prices {
		var existing plans.Plan
		err := database.DB.Where("stripe_price_id = ?", p.PriceID).First(&existing).Error

		if err != nil {
			plan := plans.Plan{
				Name:          p.ProductName,
				PriceCents:    p.UnitAmount,
				Currency:      p.Currency,
				StripePriceID: p.PriceID,
				Interval:      p.Interval,
				Tier:          p.Tier,
			}
			if err := database.DB.Create(&plan).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan", "details": err.Error()})
				return
			}
			created++
		} else {
			existing.Name = p.ProductName
			existing.PriceCents = p.UnitAmount
			existing.Currency = p.Currency
			existing.Interval = p.Interval
			if p.Tier != "" {
				existing.Tier = p.Tier
			}
			if err := database.DB.Save(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan", "details": err.Error()})
				return
			}
			updated++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"synced":  created + updated,
		"created": created,
		"updated": updated,
	})
}
