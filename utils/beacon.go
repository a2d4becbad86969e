package utils

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"mailbeacon/config"
	"mailbeacon/models"
)

// PageScraper finds addresses published on the contact's website.
type PageScraper interface {
	Scrape(ctx context.Context, baseURL, firstName, lastName string) ([]ScrapedEmail, error)
}

// MailResolver finds the mail servers responsible for a bare domain.
type MailResolver interface {
	Resolve(ctx context.Context, domain string) ([]MailServer, error)
}

// MailboxVerifier probes a single address against a server list.
type MailboxVerifier interface {
	Verify(ctx context.Context, email string, servers []MailServer) VerificationOutcome
}

// Beacon runs the full discovery pipeline for one contact: generate pattern
// candidates, scrape the website, resolve mail servers, verify candidates over
// SMTP, then score and rank what survives.
type Beacon struct {
	settings config.Settings
	resolver MailResolver
	scraper  PageScraper
	verifier MailboxVerifier
	scorer   *Scorer
	sleeper  Sleeper
	log      *logrus.Entry
}

func NewBeacon(settings config.Settings, cache MailServerCache) *Beacon {
	sleeper := newRandomSleeper(settings.MinSleepBetweenRequests, settings.MaxSleepBetweenRequests)
	return &Beacon{
		settings: settings,
		resolver: NewResolver(settings, cache),
		scraper:  NewScraper(settings),
		verifier: NewSmtpVerifier(settings, sleeper),
		scorer:   NewScorer(settings),
		sleeper:  sleeper,
		log:      logrus.WithField("component", "beacon"),
	}
}

// NewBeaconWith wires a Beacon from explicit collaborators. Test seam.
func NewBeaconWith(settings config.Settings, resolver MailResolver, scraper PageScraper, verifier MailboxVerifier, sleeper Sleeper) *Beacon {
	if sleeper == nil {
		sleeper = newRandomSleeper(settings.MinSleepBetweenRequests, settings.MaxSleepBetweenRequests)
	}
	return &Beacon{
		settings: settings,
		resolver: resolver,
		scraper:  scraper,
		verifier: verifier,
		scorer:   NewScorer(settings),
		sleeper:  sleeper,
		log:      logrus.WithField("component", "beacon"),
	}
}

// FindEmail discovers and verifies addresses for one contact. websiteURL may
// differ from domain (e.g. a company site on another host); candidates are
// always generated against domain. Returns an error only when the pipeline
// could not run at all (no mail servers, resolver unreachable); partial
// per-candidate failures are reflected in the result instead.
func (b *Beacon) FindEmail(ctx context.Context, firstName, lastName, domain, websiteURL string) (*models.EmailDiscoveryResult, error) {
	log := b.log.WithFields(logrus.Fields{"domain": domain, "first": firstName, "last": lastName})

	result := &models.EmailDiscoveryResult{
		VerificationLog: make(map[string]string),
	}

	patterns := GeneratePatterns(firstName, lastName, domain)
	if len(patterns) > 0 {
		result.MethodsUsed = append(result.MethodsUsed, "pattern_generation")
	}

	scrapeTarget := websiteURL
	if scrapeTarget == "" {
		scrapeTarget = domain
	}
	scraped, scrapeErr := b.scraper.Scrape(ctx, scrapeTarget, firstName, lastName)
	if scrapeErr != nil {
		log.Infof("scrape unavailable, continuing with patterns only: %v", scrapeErr)
	} else if len(scraped) > 0 {
		result.MethodsUsed = append(result.MethodsUsed, "website_scraping")
	}

	candidates := b.mergeCandidates(patterns, scraped)
	if len(candidates) == 0 {
		log.Info("no candidates to verify")
		return result, nil
	}

	servers, err := b.resolver.Resolve(ctx, domain)
	if err != nil {
		return nil, err
	}

	result.MethodsUsed = append(result.MethodsUsed, "smtp_verification")

	verified := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			result.VerificationLog[c.Email] = "skipped: " + err.Error()
			b.finish(result, verified)
			return result, fmt.Errorf("verification interrupted: %w", err)
		}
		if i > 0 {
			b.sleeper.Sleep(ctx)
		}
		c.Outcome = b.verifier.Verify(ctx, c.Email, servers)
		result.VerificationLog[c.Email] = c.Outcome.Message
		verified = append(verified, c)
	}

	b.finish(result, verified)
	log.WithFields(logrus.Fields{
		"candidates":  len(candidates),
		"found":       len(result.FoundEmails),
		"most_likely": result.MostLikelyEmail,
	}).Info("discovery finished")
	return result, nil
}

// mergeCandidates interleaves scraped and pattern candidates into one
// verification queue, deduplicated, strongest evidence first, capped at
// MaxCandidates. Tiers: scraped name-matched, pattern name-bearing, scraped
// generic or other, remaining patterns; alphabetical within each tier.
func (b *Beacon) mergeCandidates(patterns []string, scraped []ScrapedEmail) []Candidate {
	seen := make(map[string]bool)
	var tier1, tier3 []Candidate
	for _, s := range scraped {
		if seen[s.Email] {
			continue
		}
		seen[s.Email] = true
		c := Candidate{Email: s.Email, Source: SourceScraped, NameMatched: s.NameMatched}
		if s.NameMatched {
			tier1 = append(tier1, c)
		} else {
			tier3 = append(tier3, c)
		}
	}

	var tier2 []Candidate
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		tier2 = append(tier2, Candidate{Email: p, Source: SourcePattern, NameMatched: true})
	}

	for _, tier := range [][]Candidate{tier1, tier2, tier3} {
		sort.Slice(tier, func(i, j int) bool { return tier[i].Email < tier[j].Email })
	}

	merged := append(append(tier1, tier2...), tier3...)
	if max := b.settings.MaxCandidates; max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

// finish scores the verified candidates and fills the result's ranking and
// most-likely fields.
func (b *Beacon) finish(result *models.EmailDiscoveryResult, verified []Candidate) {
	sel := b.scorer.Select(verified)

	for _, e := range sel.Ranked {
		result.FoundEmails = append(result.FoundEmails, models.FoundEmailData{
			Email:               e.Email,
			Confidence:          e.Score,
			Source:              string(e.Source),
			NameMatched:         e.NameMatched,
			IsGeneric:           e.IsGeneric,
			IsCatchAll:          e.Outcome.IsCatchAll,
			VerificationStatus:  e.Outcome.Exists.Bool(),
			VerificationMessage: e.Outcome.Message,
		})
	}
	if sel.MostLikely != nil {
		result.MostLikelyEmail = sel.MostLikely.Email
		result.ConfidenceScore = sel.MostLikely.Score
	}
}

// deriveNames splits a free-form full name into first and last. A single
// token becomes the first name with no family name.
func deriveNames(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}
