// controller/finder_controller.go
package controller

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailbeacon/config"
	"mailbeacon/models"
	"mailbeacon/utils"
)

type FinderController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Processor *utils.Processor
	Settings  config.Settings
}

func NewFinderController(db *gorm.DB, logger *log.Logger, processor *utils.Processor, settings config.Settings) *FinderController {
	return &FinderController{
		DB:        db,
		Logger:    logger,
		Processor: processor,
		Settings:  settings,
	}
}

// FindEmail handles synchronous discovery for a single contact
func (fc *FinderController) FindEmail(c *fiber.Ctx) error {
	var input models.ContactInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": errs,
		})
	}

	result := fc.Processor.ProcessRecord(c.UserContext(), input)
	return c.JSON(result)
}

type batchRequest struct {
	Contacts []models.ContactInput `json:"contacts" validate:"required,min=1,max=500,dive"`
}

// FindEmailsBatch handles synchronous discovery for a list of contacts,
// preserving input order in the response
func (fc *FinderController) FindEmailsBatch(c *fiber.Ctx) error {
	var request batchRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if errs := utils.ValidateStruct(request); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": errs,
		})
	}

	results := fc.Processor.FindEmailsBatch(c.UserContext(), request.Contacts)
	return c.JSON(fiber.Map{
		"count":   len(results),
		"results": results,
	})
}

// BulkFind accepts a large contact list, persists a job row, and processes it
// in the background; poll GetJob for progress and results
func (fc *FinderController) BulkFind(c *fiber.Ctx) error {
	if fc.DB == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Bulk jobs require a database; configure DB_HOST or use /find/batch",
		})
	}

	var request batchRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if errs := utils.ValidateStruct(request); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": errs,
		})
	}

	job := models.DiscoveryJob{
		Name:         "Bulk discovery " + time.Now().Format("2006-01-02"),
		Status:       "processing",
		ContactCount: len(request.Contacts),
	}
	if err := fc.DB.Create(&job).Error; err != nil {
		fc.Logger.Printf("Failed to create discovery job: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create discovery job",
		})
	}

	go fc.processBulkJob(job.ID, request.Contacts)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Discovery started",
		"job_id":  job.ID,
	})
}

func (fc *FinderController) processBulkJob(jobID uint, contacts []models.ContactInput) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(len(contacts))*fc.Settings.ContactTimeout)
	defer cancel()

	results := fc.Processor.FindEmailsBatch(ctx, contacts)

	var found, skipped, errored int
	rows := make([]models.DiscoveryResult, 0, len(results))
	for _, r := range results {
		switch {
		case r.EmailFindingSkipped:
			skipped++
		case r.EmailFindingError != "":
			errored++
		case r.Email != "":
			found++
		}

		confidence := 0
		if r.EmailConfidence != nil {
			confidence = *r.EmailConfidence
		}
		rows = append(rows, models.DiscoveryResult{
			JobID:      jobID,
			FirstName:  r.ContactInput.FirstName,
			LastName:   r.ContactInput.LastName,
			Domain:     r.ContactInput.Domain,
			Email:      r.Email,
			Confidence: confidence,
			Methods:    r.VerificationMethod,
			Skipped:    r.EmailFindingSkipped,
			Reason:     r.EmailFindingReason,
			Error:      r.EmailFindingError,
			ElapsedMs:  r.ProcessingTimeMs,
		})
	}

	err := fc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&models.DiscoveryJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"status":        "completed",
			"found_count":   found,
			"skipped_count": skipped,
			"error_count":   errored,
			"completed_at":  &now,
		}).Error
	})
	if err != nil {
		fc.Logger.Printf("Failed to persist results for job %d: %v", jobID, err)
		fc.DB.Model(&models.DiscoveryJob{}).Where("id = ?", jobID).Update("status", "failed")
		return
	}

	fc.Logger.Printf("Job %d completed: %d found, %d skipped, %d errors", jobID, found, skipped, errored)
}

// GetJob returns one bulk job with its persisted results
func (fc *FinderController) GetJob(c *fiber.Ctx) error {
	if fc.DB == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Bulk jobs require a database",
		})
	}

	var job models.DiscoveryJob
	if err := fc.DB.Preload("Results").First(&job, "id = ?", c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job not found",
			})
		}
		fc.Logger.Printf("Failed to load job %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load job",
		})
	}

	return c.JSON(job)
}
