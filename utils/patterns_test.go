package utils

import (
	"reflect"
	"sort"
	"testing"
)

func TestGeneratePatterns(t *testing.T) {
	patterns := GeneratePatterns("John", "Doe", "example.com")
	if len(patterns) == 0 {
		t.Fatal("expected patterns for a full name")
	}

	if !sort.StringsAreSorted(patterns) {
		t.Errorf("patterns are not sorted: %v", patterns)
	}

	seen := make(map[string]bool)
	for _, p := range patterns {
		if seen[p] {
			t.Errorf("duplicate pattern %q", p)
		}
		seen[p] = true
	}

	for _, want := range []string{
		"john@example.com",
		"doe@example.com",
		"john.doe@example.com",
		"johndoe@example.com",
		"jdoe@example.com",
		"j.doe@example.com",
		"john_doe@example.com",
		"john-doe@example.com",
		"doe.john@example.com",
		"johdoe@example.com",
		"johndoe@example.com",
	} {
		if !seen[want] {
			t.Errorf("missing expected pattern %q in %v", want, patterns)
		}
	}
}

func TestGeneratePatternsLowercasesAndStripsSpaces(t *testing.T) {
	patterns := GeneratePatterns("Mary Ann", "Van Der Berg", "example.com")
	for _, p := range patterns {
		if p != sortedLower(p) {
			t.Errorf("pattern %q is not lowercase", p)
		}
	}
	if !containsString(patterns, "maryann.vanderberg@example.com") {
		t.Errorf("multi-word names should be collapsed, got %v", patterns)
	}
}

func sortedLower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func TestGeneratePatternsRequiresBothNamesAndDomain(t *testing.T) {
	cases := []struct {
		name                   string
		first, last, domain    string
	}{
		{"no first name", "", "Doe", "example.com"},
		{"no last name", "John", "", "example.com"},
		{"no domain", "John", "Doe", ""},
		{"domain without dot", "John", "Doe", "localhost"},
		{"whitespace-only names", "  ", "  ", "example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GeneratePatterns(tc.first, tc.last, tc.domain); got != nil {
				t.Errorf("expected nil, got %v", got)
			}
		})
	}
}

func TestGeneratePatternsIsDeterministic(t *testing.T) {
	a := GeneratePatterns("Jane", "Smith", "corp.io")
	b := GeneratePatterns("Jane", "Smith", "corp.io")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two runs differ:\n%v\n%v", a, b)
	}
}

func TestExtractEmailsFromText(t *testing.T) {
	text := "Reach us at Info@Example.com or jane.doe@example.com. " +
		"Also info@example.com again, and not-an-email@nowhere"
	got := ExtractEmailsFromText(text)
	want := []string{"info@example.com", "jane.doe@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractEmailsFromTextEmpty(t *testing.T) {
	if got := ExtractEmailsFromText(""); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := ExtractEmailsFromText("no addresses here"); got != nil {
		t.Errorf("expected nil when nothing matches, got %v", got)
	}
}

func TestLocalAndDomainPart(t *testing.T) {
	if got := localPart("a.b@c.com"); got != "a.b" {
		t.Errorf("localPart: got %q", got)
	}
	if got := domainPart("a.b@c.com"); got != "c.com" {
		t.Errorf("domainPart: got %q", got)
	}
	if got := domainPart("no-at-sign"); got != "" {
		t.Errorf("domainPart without @: got %q", got)
	}
}
