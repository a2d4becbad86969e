package utils

import (
	"sort"

	"mailbeacon/config"
)

// CandidateSource records where a candidate address came from.
type CandidateSource string

const (
	SourcePattern CandidateSource = "pattern"
	SourceScraped CandidateSource = "scraped"
)

// Candidate is one address moving through the pipeline, annotated with its
// provenance and, after verification, its probe outcome.
type Candidate struct {
	Email       string
	Source      CandidateSource
	NameMatched bool
	Outcome     VerificationOutcome
}

// ScoredEmail is a candidate after scoring, ready for selection.
type ScoredEmail struct {
	Email       string
	Score       int
	Source      CandidateSource
	NameMatched bool
	IsGeneric   bool
	Outcome     VerificationOutcome
}

// Scorer assigns confidence scores and picks the most likely address.
type Scorer struct {
	settings config.Settings
}

func NewScorer(settings config.Settings) *Scorer {
	return &Scorer{settings: settings}
}

// Score computes the confidence for one verified candidate on the 0..10 scale.
// A confirmed rejection returns 0 regardless of provenance; the caller drops
// such candidates from the result entirely.
func (s *Scorer) Score(c Candidate) int {
	if c.Outcome.Exists == ExistsNo {
		return 0
	}

	var score int
	switch {
	case c.Source == SourceScraped && c.NameMatched:
		score = 7
	case c.Source == SourceScraped:
		score = 5
	case c.NameMatched:
		score = 4
	default:
		score = 3
	}

	if s.isGeneric(c.Email) {
		score -= 3
		if score < 0 {
			score = 0
		}
	}

	if c.Outcome.Exists == ExistsYes {
		if c.Outcome.IsCatchAll {
			// A catch-all acceptance is weak evidence: a small boost, never a
			// promotion to near-certainty.
			score++
		} else {
			if score < 9 {
				score = 9
			}
			if c.NameMatched {
				score++
			}
		}
	}

	if score > 10 {
		score = 10
	}
	return score
}

// Selection is the ranked outcome for one contact.
type Selection struct {
	Ranked     []ScoredEmail
	MostLikely *ScoredEmail
}

// Select scores every candidate, drops confirmed rejections, ranks the rest,
// and picks the most likely address against the configured thresholds.
// Catch-all addresses stay in the ranking but are never chosen as most likely.
func (s *Scorer) Select(candidates []Candidate) Selection {
	ranked := make([]ScoredEmail, 0, len(candidates))
	for _, c := range candidates {
		score := s.Score(c)
		if c.Outcome.Exists == ExistsNo {
			continue
		}
		ranked = append(ranked, ScoredEmail{
			Email:       c.Email,
			Score:       score,
			Source:      c.Source,
			NameMatched: c.NameMatched,
			IsGeneric:   s.isGeneric(c.Email),
			Outcome:     c.Outcome,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.IsGeneric != b.IsGeneric {
			return !a.IsGeneric
		}
		if (a.Source == SourceScraped) != (b.Source == SourceScraped) {
			return a.Source == SourceScraped
		}
		return a.Email < b.Email
	})

	sel := Selection{Ranked: ranked}

	for i := range ranked {
		e := &ranked[i]
		if e.Outcome.IsCatchAll || e.IsGeneric {
			continue
		}
		if e.Score >= s.settings.ConfidenceThreshold {
			sel.MostLikely = e
		}
		break
	}
	if sel.MostLikely == nil {
		for i := range ranked {
			e := &ranked[i]
			if e.Outcome.IsCatchAll || !e.IsGeneric {
				continue
			}
			if e.Score >= s.settings.GenericConfidenceThreshold {
				sel.MostLikely = e
			}
			break
		}
	}
	return sel
}

func (s *Scorer) isGeneric(email string) bool {
	return s.settings.GenericEmailPrefixes[localPart(email)]
}
