package controller

import (
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"mailbeacon/config"
	"mailbeacon/utils"
)

func testApp() *fiber.App {
	settings := config.Settings{
		RequestTimeout:          time.Second,
		DNSTimeout:              time.Second,
		SMTPTimeout:             time.Second,
		DNSServers:              []string{"127.0.0.1"},
		SMTPSenderEmail:         "probe@test.local",
		SMTPHelloDomain:         "test.local",
		MaxVerificationAttempts: 1,
		ConfidenceThreshold:     4,
		MaxConcurrency:          1,
		ContactTimeout:          time.Second,
	}
	logger := log.New(os.Stdout, "TEST: ", log.LstdFlags)
	processor := utils.NewProcessor(settings, utils.NewBeacon(settings, utils.NewMemoryCache()))
	fc := NewFinderController(nil, logger, processor, settings)

	app := fiber.New()
	app.Post("/find", fc.FindEmail)
	app.Post("/find/batch", fc.FindEmailsBatch)
	app.Post("/find/bulk", fc.BulkFind)
	app.Get("/find/jobs/:id", fc.GetJob)
	return app
}

func TestFindEmailRejectsMalformedBody(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/find", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFindEmailRejectsMissingDomain(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/find", strings.NewReader(`{"first_name":"Jane","last_name":"Doe"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBatchRejectsEmptyContactList(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/find/batch", strings.NewReader(`{"contacts":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBulkFindRequiresDatabase(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/find/bulk", strings.NewReader(`{"contacts":[{"domain":"example.com"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestGetJobRequiresDatabase(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/find/jobs/1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
