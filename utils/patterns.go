package utils

import (
	"regexp"
	"sort"
	"strings"

	"github.com/badoux/checkmail"
)

var (
	emailRegex      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	emailExactRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

func sanitizeNamePart(part string) string {
	return strings.ToLower(strings.Join(strings.Fields(part), ""))
}

// GeneratePatterns produces the catalogue of common corporate address shapes
// for a name and domain. Deterministic: the result is deduplicated
// case-insensitively and sorted. Returns nil when no usable name pair can be
// derived; the caller treats that as "no pattern candidates", not an error.
func GeneratePatterns(firstName, lastName, domain string) []string {
	if firstName == "" || lastName == "" || domain == "" || !strings.Contains(domain, ".") {
		return nil
	}

	first := sanitizeNamePart(firstName)
	last := sanitizeNamePart(lastName)
	if first == "" || last == "" {
		return nil
	}

	fi := first[:1]
	li := last[:1]

	localParts := []string{
		first,              // john
		last,               // doe
		first + "." + last, // john.doe
		first + last,       // johndoe
		last + "." + first, // doe.john
		last + first,       // doejohn
		fi + last,          // jdoe
		fi + "." + last,    // j.doe
		first + li,         // johnd
		first + "." + li,   // john.d
		first + "_" + last, // john_doe
		first + "-" + last, // john-doe
		last + "_" + first, // doe_john
		last + "-" + first, // doe-john
	}
	if len(first) >= 3 {
		localParts = append(localParts, first[:3]+last) // johdoe
	}
	if len(last) >= 3 {
		localParts = append(localParts, first+last[:3]) // johndoe (truncated family name)
	}

	seen := make(map[string]bool, len(localParts))
	var patterns []string
	for _, lp := range localParts {
		if lp == "" {
			continue
		}
		email := strings.ToLower(lp + "@" + domain)
		if seen[email] {
			continue
		}
		if !emailExactRegex.MatchString(email) {
			continue
		}
		if err := checkmail.ValidateFormat(email); err != nil {
			continue
		}
		seen[email] = true
		patterns = append(patterns, email)
	}

	sort.Strings(patterns)
	return patterns
}

// ExtractEmailsFromText scans free text for email-shaped strings and returns
// them lowercased, deduplicated and sorted.
func ExtractEmailsFromText(text string) []string {
	if text == "" {
		return nil
	}
	found := emailRegex.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(found))
	var emails []string
	for _, email := range found {
		email = strings.ToLower(email)
		if !seen[email] {
			seen[email] = true
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)
	return emails
}

func localPart(email string) string {
	if idx := strings.IndexByte(email, '@'); idx >= 0 {
		return email[:idx]
	}
	return email
}

func domainPart(email string) string {
	if idx := strings.IndexByte(email, '@'); idx >= 0 {
		return email[idx+1:]
	}
	return ""
}
