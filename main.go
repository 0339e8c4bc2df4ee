package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/wdmmg/finance-api/config"
	"github.com/wdmmg/finance-api/handlers"
	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/routes"
	"github.com/wdmmg/finance-api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	go scheduleSessionCleanup(db)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	corsConfig := cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("📨 %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})

	rateLimiter := middleware.NewRateLimiter()

	public := router.Group("/")
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())

	routes.SetupAuthRoutes(public, protected, db, rateLimiter)
	routes.SetupUserRoutes(protected, db, rateLimiter)
	routes.SetupTransactionRoutes(protected, db, rateLimiter, wsHandler)
	routes.SetupBudgetRoutes(protected, db, rateLimiter, wsHandler)
	routes.SetupStatsRoutes(protected, db, rateLimiter)

	protected.GET("/ws/updates", wsHandler.HandleWS)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// scheduleSessionCleanup reaps expired refresh sessions daily so the
// sessions table stays bounded.
func scheduleSessionCleanup(db *sql.DB) {
	authService := services.NewAuthService(db)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	cleanExpiredSessions(authService)
	for range ticker.C {
		cleanExpiredSessions(authService)
	}
}

func cleanExpiredSessions(authService *services.AuthService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := authService.CleanExpiredSessions(ctx)
	if err != nil {
		log.Printf("❌ Session cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("🧹 Cleaned %d expired sessions", removed)
	}
}
