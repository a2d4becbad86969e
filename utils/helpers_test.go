package utils

import (
	"time"

	"mailbeacon/config"
)

// testSettings mirrors the production defaults with all pacing removed.
func testSettings() config.Settings {
	return config.Settings{
		RequestTimeout:          2 * time.Second,
		DNSTimeout:              2 * time.Second,
		SMTPTimeout:             2 * time.Second,
		MinSleepBetweenRequests: 0,
		MaxSleepBetweenRequests: 0,
		CommonPagesToScrape:     []string{"/contact", "/about", "/team"},
		UserAgent:               "test-agent",
		ScrapeConcurrency:       2,
		ScrapeMaxRedirects:      3,
		ScrapeRatePerSecond:     1000,
		DNSServers:              []string{"127.0.0.1"},
		SMTPSenderEmail:         "probe@test.local",
		SMTPHelloDomain:         "test.local",
		MaxVerificationAttempts: 2,

		ConfidenceThreshold:        4,
		GenericConfidenceThreshold: 7,
		MaxAlternatives:            5,
		MaxCandidates:              15,
		GenericEmailPrefixes: map[string]bool{
			"info": true, "contact": true, "support": true, "sales": true,
		},

		MaxConcurrency: 4,
		ContactTimeout: 10 * time.Second,
	}
}

func verified(exists Existence) VerificationOutcome {
	return VerificationOutcome{Exists: exists, AttemptsUsed: 1}
}

func catchAllOutcome() VerificationOutcome {
	return VerificationOutcome{Exists: ExistsYes, IsCatchAll: true, AttemptsUsed: 1}
}
