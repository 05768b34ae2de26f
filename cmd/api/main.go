package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/readnow/bookshop-api/internal/database"
	"github.com/readnow/bookshop-api/internal/handlers"
	"github.com/readnow/bookshop-api/internal/routes"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		logger.Warn("could not load .env file, relying on system environment variables")
	}

	// --- Database Connection & Migrations ---
	db, err := database.OpenDB()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready")

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:     db,
		Logger: logger,
	}

	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting bookshop API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
