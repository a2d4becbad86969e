package models

import "strings"

// ContactInput is the caller-supplied description of one contact. Either
// FullName or both FirstName and LastName must yield a usable name pair, and
// Domain must be present. The engine never mutates it.
type ContactInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Domain    string `json:"domain" validate:"required"`
	Company   string `json:"company,omitempty"`
}

// FoundEmailData is a single discovered address with its score and the
// verification signal that produced it.
type FoundEmailData struct {
	Email               string `json:"email"`
	Confidence          int    `json:"confidence"` // clamped to [0,10]
	Source              string `json:"source"`     // "pattern" or "scraped"
	NameMatched         bool   `json:"name_matched"`
	IsGeneric           bool   `json:"is_generic"`
	IsCatchAll          bool   `json:"is_catch_all"`
	VerificationStatus  *bool  `json:"verification_status"` // nil = inconclusive/untested
	VerificationMessage string `json:"verification_message"`
}

// EmailDiscoveryResult aggregates everything one contact's pipeline produced.
type EmailDiscoveryResult struct {
	FoundEmails     []FoundEmailData  `json:"found_emails"`
	MostLikelyEmail string            `json:"most_likely_email,omitempty"`
	ConfidenceScore int               `json:"confidence_score"`
	MethodsUsed     []string          `json:"methods_used"`
	VerificationLog map[string]string `json:"verification_log"`
}

// ProcessingResult is the top-level per-contact output. Expected failure modes
// never surface as errors from the engine; they land in the Skipped/Error
// fields instead.
type ProcessingResult struct {
	ContactInput ContactInput          `json:"contact_input"`
	Discovery    *EmailDiscoveryResult `json:"email_discovery_results,omitempty"`

	// Convenience fields mirroring Discovery
	Email              string   `json:"email,omitempty"`
	EmailConfidence    *int     `json:"email_confidence,omitempty"`
	VerificationMethod string   `json:"email_verification_method,omitempty"`
	EmailAlternatives  []string `json:"email_alternatives"`

	EmailFindingSkipped bool   `json:"email_finding_skipped"`
	EmailFindingReason  string `json:"email_finding_reason,omitempty"`
	EmailFindingError   string `json:"email_finding_error,omitempty"`

	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// PopulateConvenienceFields copies the headline values out of Discovery so API
// consumers don't have to dig through the nested result.
func (r *ProcessingResult) PopulateConvenienceFields(maxAlternatives int) {
	if r.Discovery == nil {
		return
	}
	r.Email = r.Discovery.MostLikelyEmail
	if r.Email != "" {
		conf := r.Discovery.ConfidenceScore
		r.EmailConfidence = &conf
	}
	r.VerificationMethod = strings.Join(r.Discovery.MethodsUsed, ", ")

	r.EmailAlternatives = nil
	for _, found := range r.Discovery.FoundEmails {
		if found.Email == r.Discovery.MostLikelyEmail {
			continue
		}
		r.EmailAlternatives = append(r.EmailAlternatives, found.Email)
		if maxAlternatives > 0 && len(r.EmailAlternatives) >= maxAlternatives {
			break
		}
	}
}
