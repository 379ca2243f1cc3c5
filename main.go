package main

import (
	"os"
	"time"

	"membership-app/config"
	"membership-app/database"
	billingapi "membership-app/internal/api/billing"
	plansapi "membership-app/internal/api/plans"
	stripewebhooks "membership-app/internal/api/stripewebhook"
	routes "membership-app/internal/app/http"
	"membership-app/internal/billing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	db := database.InitDB()

	provider := billing.NewStripeProvider(config.STRIPE_SECRET_KEY)
	ledger := billing.NewGormLedger(db)
	reconciler := billing.NewReconciler(ledger, provider)
	resolver := billing.NewCustomerResolver(ledger, provider)

	handlers := routes.Handlers{
		Webhook: stripewebhooks.NewHandler(config.STRIPE_WEBHOOK_SECRET, reconciler),
		Billing: billingapi.NewHandler(provider, resolver, config.APP_URL),
		Plans:   plansapi.NewHandler(provider),
	}

	r := gin.Default()

	// ✅ Add CORS middleware BEFORE registering routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, handlers)

	r.Run(":" + config.PORT)
}
