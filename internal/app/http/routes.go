package routes

import (
	adminapi "membership-app/internal/api/admin"
	authapi "membership-app/internal/api/auth"
	billingapi "membership-app/internal/api/billing"
	classesapi "membership-app/internal/api/classes"
	membersapi "membership-app/internal/api/members"
	plansapi "membership-app/internal/api/plans"
	stripewebhooks "membership-app/internal/api/stripewebhook"
	"membership-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers carries the constructed handlers that need injected billing
// dependencies. Everything else registers as plain package functions.
type Handlers struct {
	Webhook *stripewebhooks.Handler
	Billing *billingapi.Handler
	Plans   *plansapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.POST("/webhook", h.Webhook.HandleWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ✅ Apply input sanitization to public routes only
	public := r.Group("/")
	public.Use(middleware.SanitizeInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plansapi.ListPlans)
	public.GET("/classes", classesapi.ListClasses)
	public.GET("/verify", membersapi.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", membersapi.GetCurrentMember)
	auth.GET("/payments", billingapi.GetPaymentHistory)
	auth.POST("/create-checkout-session", h.Billing.CreateCheckoutSession)
	auth.POST("/billing-portal", h.Billing.CreateBillingPortal)
	auth.GET("/membership", h.Billing.GetMembership)
	auth.POST("/membership/cancel", h.Billing.CancelMembership)
	auth.POST("/membership/resume", h.Billing.ResumeMembership)
	auth.POST("/change-password", authapi.ChangePassword)

	// Members with a current membership
	active := auth.Group("/")
	active.Use(middleware.RequireActiveMembership())
	active.POST("/change-plan", h.Billing.ChangePlan)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.GetAdminStats)
	admin.GET("/members", adminapi.ListAllMembers)
	admin.GET("/members/:id", adminapi.GetMemberDetails)
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.POST("/sync-plans", h.Plans.SyncPlansFromStripe)
	admin.POST("/classes", classesapi.CreateClass)
	admin.PUT("/classes/:id", classesapi.UpdateClass)
	admin.DELETE("/classes/:id", classesapi.DeleteClass)
}
