package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscoveryJob tracks one asynchronous bulk-discovery request.
type DiscoveryJob struct {
	gorm.Model
	Name         string     `gorm:"not null" json:"name"`
	Status       string     `gorm:"not null;default:'processing'" json:"status"` // processing, completed, failed
	ContactCount int        `json:"contact_count"`
	FoundCount   int        `json:"found_count"`
	SkippedCount int        `json:"skipped_count"`
	ErrorCount   int        `json:"error_count"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Results []DiscoveryResult `gorm:"foreignKey:JobID" json:"results,omitempty"`
}

// DiscoveryResult persists the outcome of one contact within a bulk job.
type DiscoveryResult struct {
	gorm.Model
	JobID      uint    `gorm:"index;not null" json:"job_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Domain     string  `json:"domain"`
	Email      string  `json:"email"`
	Confidence int     `json:"confidence"`
	Methods    string  `json:"methods"`
	Skipped    bool    `json:"skipped"`
	Reason     string  `json:"reason"`
	Error      string  `json:"error"`
	ElapsedMs  float64 `json:"elapsed_ms"`
}
