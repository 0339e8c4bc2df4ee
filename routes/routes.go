package routes

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/handlers"
	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/services"
)

// Per-endpoint rate ceilings (requests per minute, per identity).
const (
	limitSignup  = 5
	limitAuth    = 10
	limitRefresh = 20
	limitRead    = 60
	limitWrite   = 30
	limitBulk    = 10
)

// SetupAuthRoutes wires both the public auth endpoints and the
// bearer-protected session ones.
func SetupAuthRoutes(public, protected *gin.RouterGroup, db *sql.DB, rl *middleware.RateLimiter) {
	authHandler := &handlers.AuthHandler{Auth: services.NewAuthService(db)}

	public.POST("/auth/signup", rl.Limit("signup", limitSignup), authHandler.Signup)
	public.POST("/auth/login", rl.Limit("auth", limitAuth), authHandler.Login)
	public.POST("/auth/google", rl.Limit("auth", limitAuth), authHandler.GoogleAuth)
	public.POST("/auth/refresh", rl.Limit("refresh", limitRefresh), authHandler.Refresh)

	protected.POST("/auth/logout", rl.Limit("auth", limitAuth), authHandler.Logout)
	protected.GET("/auth/me", rl.Limit("read", limitRead), authHandler.Me)
}

// SetupUserRoutes wires profile and 2FA management.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB, rl *middleware.RateLimiter) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.PUT("/user/profile", rl.Limit("write", limitWrite), userHandler.UpdateProfile)
	rg.POST("/user/2fa/setup", rl.Limit("write", limitWrite), userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", rl.Limit("write", limitWrite), userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", rl.Limit("write", limitWrite), userHandler.DisableTOTP)
}

// SetupTransactionRoutes wires transaction CRUD, bulk delete, export and the
// category enumeration.
func SetupTransactionRoutes(rg *gin.RouterGroup, db *sql.DB, rl *middleware.RateLimiter, ws *handlers.WSHandler) {
	h := &handlers.TransactionHandler{
		Transactions: services.NewTransactionService(db),
		WS:           ws,
	}

	rg.GET("/categories", rl.Limit("read", limitRead), func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Categories)
	})

	rg.POST("/transactions", rl.Limit("write", limitWrite), h.Create)
	rg.GET("/transactions", rl.Limit("read", limitRead), h.List)
	rg.GET("/transactions/export", rl.Limit("read", limitRead), h.Export)
	rg.GET("/transactions/:id", rl.Limit("read", limitRead), h.Get)
	rg.PUT("/transactions/:id", rl.Limit("write", limitWrite), h.Update)
	rg.DELETE("/transactions/:id", rl.Limit("write", limitWrite), h.Delete)
	rg.POST("/transactions/bulk-delete", rl.Limit("bulk", limitBulk), h.BulkDelete)
}

// SetupBudgetRoutes wires budget upsert, delete and status.
func SetupBudgetRoutes(rg *gin.RouterGroup, db *sql.DB, rl *middleware.RateLimiter, ws *handlers.WSHandler) {
	h := &handlers.BudgetHandler{
		Budgets: services.NewBudgetService(db),
		WS:      ws,
	}

	rg.GET("/budgets", rl.Limit("read", limitRead), h.List)
	rg.POST("/budgets", rl.Limit("write", limitWrite), h.Upsert)
	rg.GET("/budgets/status", rl.Limit("read", limitRead), h.Status)
	rg.DELETE("/budgets/:id", rl.Limit("write", limitWrite), h.Delete)
}

// SetupStatsRoutes wires the aggregation endpoints.
func SetupStatsRoutes(rg *gin.RouterGroup, db *sql.DB, rl *middleware.RateLimiter) {
	h := &handlers.StatsHandler{Stats: services.NewStatsService(db)}

	rg.GET("/stats/by-category", rl.Limit("read", limitRead), h.ByCategory)
	rg.GET("/stats/trends", rl.Limit("read", limitRead), h.Trends)
}
