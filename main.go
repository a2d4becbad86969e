package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"mailbeacon/config"
	"mailbeacon/middleware"
	"mailbeacon/routes"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.Environment == "development" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Initialize database connection (optional, enables bulk jobs)
	if err := config.ConnectDB(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName: "mailbeacon",
	})

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(app, config.DB)

	// Start server
	log.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
