package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/admin"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/auth"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/config"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/content"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/entitlement"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/identity"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/mailer"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/metrics"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/middleware"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/storage"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/stripe"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/usage"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	if cfg.DBUrl == "" {
		panic("SUPABASE_DB_URL is required")
	}

	database.Connect(cfg.DBUrl)

	err := database.DB.AutoMigrate(
		&user.Profile{},
		&subscriber.Subscriber{},
		&plan.Configuration{},
		&plan.Limit{},
		&entitlement.Override{},
		&content.LegacyPost{},
		&content.IdeaPost{},
		&content.TimelessMessage{},
		&content.WisdomResource{},
	)
	if err != nil {
		panic("migration failed: " + err.Error())
	}

	if err := storage.InitS3(); err != nil {
		logs.LogJSON("WARN", "S3 unavailable, storage usage will read as zero", map[string]interface{}{
			"error": err.Error(),
		})
	}

	idp := identity.NewClientFromEnv()
	authHandler := auth.NewHandler(idp)

	aggregator := usage.NewAggregator(storage.NewObjectLister())
	evaluator := entitlement.NewEvaluator(aggregator)
	entHandler := entitlement.NewHandler(evaluator)
	contentHandler := content.NewHandler(evaluator)
	reconciler := stripe.NewReconciler()

	deliverer := mailer.NewDeliverer(mailer.NewClientFromEnv())
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			sent, err := deliverer.DeliverDue(ctx)
			cancel()
			if err != nil {
				logs.LogJSON("ERROR", "Timeless delivery sweep failed", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if sent > 0 {
				logs.LogJSON("INFO", "Timeless messages delivered", map[string]interface{}{
					"sent": sent,
				})
			}
		}
	}()

	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)

	// Stripe calls this endpoint directly; auth is the signature check.
	api.POST("/webhooks/stripe", reconciler.HandleWebhook)

	api.Use(middleware.AuthMiddleware())

	api.GET("/me", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": c.GetString("user_id")})
	})

	api.POST("/checkout", stripe.CreateCheckout)
	api.POST("/checkout/confirm", stripe.ConfirmPayment)
	api.GET("/subscription", entHandler.GetSubscription)
	api.GET("/entitlements", entHandler.GetEntitlements)
	api.GET("/can-create/:kind", entHandler.CanCreateContent)

	api.POST("/legacy", contentHandler.CreateLegacyPost)
	api.GET("/legacy", contentHandler.GetLegacyPosts)
	api.DELETE("/legacy/:id", contentHandler.DeleteLegacyPost)

	api.POST("/ideas", contentHandler.CreateIdeaPost)
	api.GET("/ideas", contentHandler.GetIdeaPosts)

	api.POST("/timeless", contentHandler.CreateTimelessMessage)
	api.GET("/timeless", contentHandler.GetTimelessMessages)

	api.POST("/wisdom", contentHandler.CreateWisdomResource)
	api.GET("/wisdom", contentHandler.GetWisdomResources)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminOnlyMiddleware())
	adminGroup.GET("/stats", admin.GetDashboardStats)
	adminGroup.PUT("/users/:id/access", admin.SetAccessOverride)
	adminGroup.DELETE("/users/:id/access", admin.ClearAccessOverride)
	adminGroup.PUT("/users/:id/plan", admin.ChangeUserPlan)
	adminGroup.POST("/deliver-timeless", func(c *gin.Context) {
		sent, err := deliverer.DeliverDue(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"sent": sent})
	})

	if err := r.Run(":8080"); err != nil {
		panic(err)
	}
}
