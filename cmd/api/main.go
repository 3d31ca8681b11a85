package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/humexxx/capital-galaxy/internal/config"
	"github.com/humexxx/capital-galaxy/internal/database"
	"github.com/humexxx/capital-galaxy/internal/handlers"
	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/middleware"
	"github.com/humexxx/capital-galaxy/internal/productivity"
	"github.com/humexxx/capital-galaxy/internal/services"
	"github.com/humexxx/capital-galaxy/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/humexxx/capital-galaxy/internal/docs" // Import swagger docs
)

// @title           Capital Galaxy API
// @version         1.0
// @description     Capital Galaxy tracks investment portfolios: buy and withdrawal transactions with admin approval, monthly compound interest accrual, and daily valuation snapshots.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

//go:generate swag init -g main.go -d .,../../internal -o ../../internal/docs

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db)
	methodService := services.NewInvestmentMethodService(db)
	snapshotService := services.NewSnapshotService(db)
	transactionService := services.NewTransactionService(db, portfolioService, methodService, snapshotService)
	interestService := services.NewInterestService(db)
	jobStateService := services.NewJobStateService(db)

	var taskAutomator services.TaskAutomator
	if appConfig.TaskAutomationURL != "" {
		taskAutomator = productivity.NewClient(appConfig.TaskAutomationURL, appConfig.TaskAutomationAPIKey, http.DefaultClient)
	}
	dailyJobService := services.NewDailyJobService(interestService, snapshotService, userService, jobStateService, taskAutomator)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, portfolioService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	methodHandler := handlers.NewInvestmentMethodHandler(methodService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, portfolioService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, interestService, portfolioService)
	cronHandler := handlers.NewCronHandler(dailyJobService, jobStateService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Scheduled job endpoint, guarded by the cron shared secret
	cron := v1.Group("/cron")
	cron.Use(middleware.CronAuthMiddleware(appConfig.CronSecret))
	cron.POST("/daily", cronHandler.RunDaily)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Portfolio routes
	protected.GET("/portfolio", portfolioHandler.GetPortfolio)
	protected.GET("/portfolio/stats", portfolioHandler.GetStats)
	protected.GET("/snapshots", snapshotHandler.GetSnapshots)

	// Investment method routes
	methods := protected.Group("/methods")
	methods.GET("", methodHandler.ListMethods)
	methods.GET("/:id", methodHandler.GetMethodByID)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/methods", methodHandler.CreateMethod)
	admin.DELETE("/methods/:id", methodHandler.DeleteMethod)
	admin.GET("/transactions", transactionHandler.ListTransactions)
	admin.POST("/transactions/:id/approve", transactionHandler.ApproveTransaction)
	admin.POST("/transactions/:id/reject", transactionHandler.RejectTransaction)
	admin.GET("/portfolios", portfolioHandler.ListPortfolios)
	admin.POST("/portfolios/:id/snapshots", snapshotHandler.CreateSnapshot)
	admin.DELETE("/portfolios/:id/snapshots/manual", snapshotHandler.DeleteManualSnapshots)

	log.Infof("Starting Capital Galaxy API server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
