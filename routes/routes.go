package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"mailbeacon/config"
	controller "mailbeacon/controllers"
	"mailbeacon/middleware"
	"mailbeacon/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	finderLogger := log.New(os.Stdout, "FINDER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// MX cache: shared Redis when configured, per-process memory otherwise
	var cache utils.MailServerCache
	if config.AppConfig.Redis.Enabled {
		cache = utils.NewRedisCache(
			config.AppConfig.Redis.Address,
			config.AppConfig.Redis.Password,
			config.AppConfig.Redis.DB,
		)
	} else {
		cache = utils.NewMemoryCache()
	}

	settings := config.AppConfig.Engine
	beacon := utils.NewBeacon(settings, cache)
	processor := utils.NewProcessor(settings, beacon)
	finderController := controller.NewFinderController(db, finderLogger, processor, settings)

	rateLimiter := middleware.NewClientRateLimiter(2, 5)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "running",
			"persistence": db != nil,
		})
	})

	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}), rateLimiter.Handler())

	api.Post("/find", finderController.FindEmail)
	api.Post("/find/batch", finderController.FindEmailsBatch)
	api.Post("/find/bulk", finderController.BulkFind)
	api.Get("/find/jobs/:id", finderController.GetJob)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})

	finderLogger.Println("Discovery routes initialized successfully")
}
