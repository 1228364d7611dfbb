// Package router sets up HTTP routes for the API.
package router

import (
	"net/http"

	_ "quickchat/swagger" // Import generated swagger docs

	"quickchat/internal/handler"
	"quickchat/internal/middleware"
	"quickchat/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Config holds all dependencies needed to set up routes.
type Config struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	ChatHandler    *handler.ChatHandler
	MessageHandler *handler.MessageHandler
	CreditHandler  *handler.CreditHandler
	TokenManager   auth.TokenManager
	Logger         *zap.Logger
}

// Setup creates and configures the Gin router.
func Setup(cfg *Config) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.CORS())

	// Swagger docs at /docs
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		requireAuth := middleware.Auth(cfg.TokenManager)

		// User routes
		user := api.Group("/user")
		{
			user.POST("/register", cfg.AuthHandler.Register)
			user.POST("/login", cfg.AuthHandler.Login)
			user.GET("/published-images", cfg.UserHandler.GetPublishedImages)
			user.GET("/data", requireAuth, cfg.UserHandler.GetUserData)
		}

		// Chat routes (protected)
		chat := api.Group("/chat")
		chat.Use(requireAuth)
		{
			chat.GET("/create", cfg.ChatHandler.CreateChat)
			chat.POST("/create", cfg.ChatHandler.CreateChat)
			chat.GET("/get", cfg.ChatHandler.ListChats)
			chat.GET("/:id", cfg.ChatHandler.GetChat)
			chat.POST("/delete", cfg.ChatHandler.DeleteChat)
		}

		// Message routes (protected)
		message := api.Group("/message")
		message.Use(requireAuth)
		{
			message.POST("/text", cfg.MessageHandler.SendText)
			message.POST("/image", cfg.MessageHandler.SendImage)
			message.GET("/suggestions", cfg.MessageHandler.Suggestions)
		}

		// Credit routes (protected)
		credit := api.Group("/credit")
		credit.Use(requireAuth)
		{
			credit.GET("/plan", cfg.CreditHandler.ListPlans)
			credit.POST("/purchase", cfg.CreditHandler.Purchase)
			credit.GET("/transactions", cfg.CreditHandler.ListTransactions)
		}

		// Stripe webhook (verified by signature)
		api.POST("/stripe", cfg.CreditHandler.StripeWebhook)
	}

	return r
}
