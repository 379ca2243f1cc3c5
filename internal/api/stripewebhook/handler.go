package stripewebhooks

import (
	"io"
	"log"
	"net/http"

	"membership-app/internal/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75/webhook"
)

const maxBodyBytes = 65536

// Handler is the inbound Stripe webhook endpoint. The signature check is the
// only authentication on this route; everything after it trusts the event.
type Handler struct {
	endpointSecret string
	reconciler     *billing.Reconciler
}

func NewHandler(endpointSecret string, reconciler *billing.Reconciler) *Handler {
	return &Handler{endpointSecret: endpointSecret, reconciler: reconciler}
}

func (h *Handler) HandleWebhook(c *gin.Context) {
	if h.endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Println("stripe signature verification failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	decoded, err := billing.DecodeEvent(&event)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event payload"})
		return
	}
	if decoded == nil {
		// Unhandled event kinds are acknowledged so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.reconciler.Process(c.Request.Context(), decoded); err != nil {
		// 5xx signals Stripe to retry later.
		log.Printf("stripe webhook %s processing failed: %v", event.Type, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
