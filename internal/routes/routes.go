package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/readnow/bookshop-api/internal/handlers"
	"github.com/readnow/bookshop-api/internal/middleware"
)

// CORSMiddleware allows the SPA origin to talk to us. The origin comes from
// CORS_ORIGIN, defaulting to the local Vite dev server.
func CORSMiddleware() gin.HandlerFunc {
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())

	// An uncaught panic becomes a generic 500; the stack stays server-side.
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		h.Logger.Error("panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong!"})
	}))

	router.Use(CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	api := router.Group("/api")
	{
		// --- Public Catalog Routes ---
		api.GET("/books", h.ListBooks)
		api.GET("/books/:id", h.GetBook)
		api.GET("/books/:id/reviews", h.ListBookReviews)

		// --- Auth Routes (Public) ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// --- Protected Routes (Login Required) ---
		auth := api.Group("/")
		auth.Use(middleware.AuthMiddleware())
		{
			auth.GET("/auth/me", h.Me)
			auth.PUT("/auth/profile", h.UpdateProfile)

			auth.POST("/books/:id/reviews", h.AddReview)

			auth.POST("/orders", h.PlaceOrder)
			auth.GET("/orders/my-orders", h.GetMyOrders)
			auth.GET("/orders/:id", h.GetOrder)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware())
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.GET("/stats", h.GetAdminStats)

			admin.GET("/books", h.AdminListBooks)
			admin.POST("/books", h.CreateBook)
			admin.PUT("/books/:id", h.UpdateBook)
			admin.DELETE("/books/:id", h.DeleteBook)

			admin.GET("/users", h.AdminListUsers)
			admin.PUT("/users/:id/role", h.UpdateUserRole)

			admin.GET("/orders", h.AdminListOrders)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
