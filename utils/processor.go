package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mailbeacon/config"
	"mailbeacon/models"
)

// Processor turns raw contact records into processing results. It owns input
// triage (name derivation, domain normalization, skip decisions) so the Beacon
// only ever sees well-formed work.
type Processor struct {
	settings config.Settings
	beacon   *Beacon
	log      *logrus.Entry
}

func NewProcessor(settings config.Settings, beacon *Beacon) *Processor {
	return &Processor{
		settings: settings,
		beacon:   beacon,
		log:      logrus.WithField("component", "processor"),
	}
}

// ProcessRecord runs the pipeline for one contact. Expected failures (missing
// input, dead domains, unreachable resolvers) are reported inside the result;
// the method itself never fails.
func (p *Processor) ProcessRecord(ctx context.Context, input models.ContactInput) models.ProcessingResult {
	start := time.Now()
	result := models.ProcessingResult{ContactInput: input}
	defer func() {
		result.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)
		result.PopulateConvenienceFields(p.settings.MaxAlternatives)
	}()

	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" && last == "" {
		first, last = deriveNames(input.FullName)
	}
	if first == "" && last == "" {
		result.EmailFindingSkipped = true
		result.EmailFindingReason = "no usable name: provide first_name/last_name or full_name"
		return result
	}

	rawDomain := strings.TrimSpace(input.Domain)
	if rawDomain == "" {
		result.EmailFindingSkipped = true
		result.EmailFindingReason = "no domain provided"
		return result
	}

	websiteURL, err := NormalizeURL(rawDomain)
	if err != nil {
		result.EmailFindingSkipped = true
		result.EmailFindingReason = fmt.Sprintf("unusable domain %q: %v", rawDomain, err)
		return result
	}
	domain, err := ExtractDomain(websiteURL)
	if err != nil {
		result.EmailFindingSkipped = true
		result.EmailFindingReason = fmt.Sprintf("unusable domain %q: %v", rawDomain, err)
		return result
	}

	findCtx, cancel := context.WithTimeout(ctx, p.settings.ContactTimeout)
	defer cancel()

	discovery, err := p.beacon.FindEmail(findCtx, first, last, domain, websiteURL)
	if err != nil {
		var noServer *NoMailServerError
		var resErr *ResolutionError
		switch {
		case errors.As(err, &noServer):
			result.EmailFindingError = noServer.Error()
		case errors.As(err, &resErr):
			result.EmailFindingError = resErr.Error()
		default:
			result.EmailFindingError = err.Error()
		}
		// Partial results from an interrupted run are still worth returning.
		result.Discovery = discovery
		p.log.WithFields(logrus.Fields{"domain": domain}).Warnf("discovery failed: %v", err)
		return result
	}

	result.Discovery = discovery
	return result
}

// FindEmailsBatch processes contacts concurrently, bounded by MaxConcurrency.
// The returned slice is index-aligned with the input; one contact's failure
// (including a panic in its pipeline) never affects its neighbours.
func (p *Processor) FindEmailsBatch(ctx context.Context, contacts []models.ContactInput) []models.ProcessingResult {
	results := make([]models.ProcessingResult, len(contacts))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.settings.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, contact := range contacts {
		i, contact := i, contact
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					p.log.WithField("index", i).Errorf("recovered panic: %v", r)
					results[i] = models.ProcessingResult{
						ContactInput:      contact,
						EmailFindingError: fmt.Sprintf("unexpected failure: %v", r),
					}
				}
			}()
			results[i] = p.ProcessRecord(gctx, contact)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
