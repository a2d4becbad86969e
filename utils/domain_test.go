package utils

import (
	"errors"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"www.example.com", "https://www.example.com"},
		{"http://example.com/about", "http://example.com/about"},
		{"https://example.com", "https://example.com"},
		{"  example.com  ", "https://example.com"},
	}
	for _, tc := range cases {
		got, err := NormalizeURL(tc.in)
		if err != nil {
			t.Errorf("NormalizeURL(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURLEmpty(t *testing.T) {
	_, err := NormalizeURL("   ")
	if !errors.Is(err, ErrInsufficientInput) {
		t.Errorf("expected ErrInsufficientInput, got %v", err)
	}
}

func TestExtractDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/contact", "example.com"},
		{"http://sub.example.co.uk", "sub.example.co.uk"},
		{"example.com", "example.com"},
		{"www.example.com/about?x=1", "example.com"},
	}
	for _, tc := range cases {
		got, err := ExtractDomain(tc.in)
		if err != nil {
			t.Errorf("ExtractDomain(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractDomainFailure(t *testing.T) {
	for _, in := range []string{"", "   ", "https://"} {
		if _, err := ExtractDomain(in); !errors.Is(err, ErrDomainExtraction) {
			t.Errorf("ExtractDomain(%q): expected ErrDomainExtraction, got %v", in, err)
		}
	}
}
