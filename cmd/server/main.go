package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/api"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/db"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/logging"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/narrative"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Ensure all log output goes to stdout so App Runner captures it in Application Logs
	log.SetOutput(os.Stdout)

	log.Printf("Analytics Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal; allow process to start for /live)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	// Narrative backend is optional; the suggestion endpoint degrades to 503
	var narrator narrative.Generator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		narrator = narrative.NewOpenAI(narrative.Config{
			APIKey: apiKey,
			Model:  os.Getenv("OPENAI_MODEL"),
		})
	} else {
		log.Println("[WARN] OPENAI_API_KEY not set, narrative generation disabled")
	}

	// Initialize handlers
	handler := api.NewHandler(database, narrator)

	// Set up Gin router
	router := setupRouter(handler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Set up graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())

	// CORS restricted to the dashboard origin if provided
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}
	if origin := os.Getenv("DASHBOARD_ORIGIN"); origin != "" {
		corsCfg.AllowOrigins = []string{origin}
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	router.GET("/health", handler.Health)

	// API routes
	v1 := router.Group("/api/v1")
	{
		analytics := v1.Group("/analytics")
		analytics.Use(api.AuthMiddleware(), api.RequireRole("viewer", "analyst", "admin"))
		{
			analytics.GET("/kpis", handler.GetKPIs)
			analytics.GET("/trend", handler.GetTrend)
			analytics.GET("/summary", handler.GetSummary)
			analytics.GET("/snapshot", handler.GetSnapshot)
			analytics.GET("/suggestion", handler.GetSuggestion)
		}
	}

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "analytics-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
