package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateSettingsClampsThresholds(t *testing.T) {
	s := Settings{
		SMTPSenderEmail:            "probe@test.local",
		MinSleepBetweenRequests:    time.Second,
		MaxSleepBetweenRequests:    100 * time.Millisecond,
		DNSServers:                 nil,
		ConfidenceThreshold:        12,
		GenericConfidenceThreshold: 3,
		MaxConcurrency:             0,
		MaxVerificationAttempts:    0,
	}
	if err := validateSettings(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.MaxSleepBetweenRequests != s.MinSleepBetweenRequests {
		t.Error("max sleep should be clamped up to min sleep")
	}
	if len(s.DNSServers) == 0 {
		t.Error("empty DNS server list should fall back to defaults")
	}
	if s.ConfidenceThreshold != 10 {
		t.Errorf("confidence threshold = %d, want 10", s.ConfidenceThreshold)
	}
	if s.GenericConfidenceThreshold < s.ConfidenceThreshold {
		t.Error("generic threshold must be raised to at least the base threshold")
	}
	if s.MaxConcurrency != 1 || s.MaxVerificationAttempts != 1 {
		t.Errorf("counters not clamped: %d %d", s.MaxConcurrency, s.MaxVerificationAttempts)
	}
}

func TestValidateSettingsRejectsBadSender(t *testing.T) {
	s := Settings{SMTPSenderEmail: "not-an-address"}
	if err := validateSettings(&s); err == nil {
		t.Fatal("expected an error for an invalid sender address")
	}
}

func TestMaskPassword(t *testing.T) {
	dsn := "host=localhost port=5432 user=u password=secret dbname=x"
	masked := maskPassword(dsn)
	if strings.Contains(masked, "secret") {
		t.Errorf("password leaked: %s", masked)
	}
	if !strings.Contains(masked, "*****") {
		t.Errorf("mask missing: %s", masked)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("MB_TEST_INT", "7")
	if got := getEnvAsInt("MB_TEST_INT", 1); got != 7 {
		t.Errorf("getEnvAsInt = %d", got)
	}
	if got := getEnvAsInt("MB_TEST_MISSING", 3); got != 3 {
		t.Errorf("fallback = %d", got)
	}

	t.Setenv("MB_TEST_DUR", "250ms")
	if got := getEnvAsDuration("MB_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("getEnvAsDuration = %v", got)
	}

	t.Setenv("MB_TEST_SLICE", "a, b ,,c")
	got := getEnvAsSlice("MB_TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("getEnvAsSlice = %v", got)
	}
}
