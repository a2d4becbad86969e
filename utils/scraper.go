package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mailbeacon/config"
)

// ScrapedEmail is one address lifted off the target website. NameMatched is
// true when the local part contains the contact's given or family name.
type ScrapedEmail struct {
	Email       string `json:"email"`
	NameMatched bool   `json:"name_matched"`
}

// Scraper fetches a bounded set of pages from a target site and extracts
// email-like strings from mailto links and page text.
type Scraper struct {
	settings config.Settings
	client   *fasthttp.Client
	limiter  *rate.Limiter
	sleeper  Sleeper
	log      *logrus.Entry
}

func NewScraper(settings config.Settings) *Scraper {
	ratePerSec := settings.ScrapeRatePerSecond
	if ratePerSec <= 0 {
		ratePerSec = 4
	}
	return &Scraper{
		settings: settings,
		client: &fasthttp.Client{
			ReadTimeout:         settings.RequestTimeout,
			WriteTimeout:        settings.RequestTimeout,
			MaxConnsPerHost:     settings.ScrapeConcurrency + 1,
			MaxIdleConnDuration: settings.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		sleeper: newRandomSleeper(settings.MinSleepBetweenRequests, settings.MaxSleepBetweenRequests),
		log:     logrus.WithField("component", "scraper"),
	}
}

// Scrape fetches the homepage plus the configured common pages and returns
// the relevant addresses found: those on the target bare domain, plus generic
// inboxes found anywhere on the site. Per-page failures are logged and
// skipped; the scrape as a whole fails only when the homepage is unreachable.
func (s *Scraper) Scrape(ctx context.Context, baseURL, firstName, lastName string) ([]ScrapedEmail, error) {
	normalized, err := NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURLParse, err)
	}
	bareDomain := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))

	log := s.log.WithField("site", bareDomain)

	// The homepage anchors the scrape: if it is unreachable the site is
	// considered unscrapable and the pipeline continues pattern-only.
	found := make(map[string]bool)
	body, err := s.fetchPage(ctx, normalized)
	if err != nil {
		log.Warnf("homepage fetch failed: %v", err)
		return nil, fmt.Errorf("homepage unreachable: %w", err)
	}
	s.collectEmails(body, found, nil)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.scrapeConcurrency())

	for _, page := range s.settings.CommonPagesToScrape {
		pageURL, ok := s.resolvePage(parsed, page)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return nil
			}
			s.sleeper.Sleep(gctx)
			if gctx.Err() != nil {
				return nil
			}
			body, err := s.fetchPage(gctx, pageURL)
			if err != nil {
				log.Debugf("skipping %s: %v", pageURL, err)
				return nil
			}
			s.collectEmails(body, found, &mu)
			return nil
		})
	}
	_ = g.Wait()

	first := sanitizeNamePart(firstName)
	last := sanitizeNamePart(lastName)

	var results []ScrapedEmail
	for email := range found {
		local := localPart(email)
		if domainPart(email) != bareDomain && !s.settings.GenericEmailPrefixes[local] {
			continue
		}
		if err := checkmail.ValidateFormat(email); err != nil {
			continue
		}
		matched := (first != "" && strings.Contains(local, first)) ||
			(last != "" && strings.Contains(local, last))
		results = append(results, ScrapedEmail{Email: email, NameMatched: matched})
	}

	// Fetch completion order is not deterministic; sort so a fixed candidate
	// set always produces the same output.
	sort.Slice(results, func(i, j int) bool { return results[i].Email < results[j].Email })

	log.WithField("emails", len(results)).Info("scrape finished")
	return results, nil
}

func (s *Scraper) scrapeConcurrency() int {
	if s.settings.ScrapeConcurrency < 1 {
		return 1
	}
	return s.settings.ScrapeConcurrency
}

// resolvePage joins a common-page path against the base URL, refusing pages
// that would land on a different host.
func (s *Scraper) resolvePage(base *url.URL, page string) (string, bool) {
	ref, err := url.Parse(page)
	if err != nil {
		return "", false
	}
	full := base.ResolveReference(ref)
	if !strings.EqualFold(full.Hostname(), base.Hostname()) {
		return "", false
	}
	return full.String(), true
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(pageURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(s.settings.UserAgent)
	req.Header.Set(fasthttp.HeaderAccept, "text/html,application/xhtml+xml")

	if err := s.client.DoRedirects(req, resp, s.settings.ScrapeMaxRedirects); err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", status, pageURL)
	}

	contentType := strings.ToLower(string(resp.Header.ContentType()))
	if contentType != "" && !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("non-HTML content type %q at %s", contentType, pageURL)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		body = resp.Body()
	}
	return append([]byte(nil), body...), nil
}

// collectEmails parses one page and adds every address found to dst,
// lowercased. mu may be nil for single-threaded use.
func (s *Scraper) collectEmails(body []byte, dst map[string]bool, mu *sync.Mutex) {
	emails := extractEmailsFromHTML(body)
	if len(emails) == 0 {
		return
	}
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	for _, email := range emails {
		dst[email] = true
	}
}

// extractEmailsFromHTML pulls addresses from mailto: links and from the
// rendered text with script/style stripped. Falls back to a raw regex scan if
// the document cannot be parsed.
func extractEmailsFromHTML(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ExtractEmailsFromText(string(body))
	}

	seen := make(map[string]bool)
	doc.Find("a[href^='mailto:']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.IndexByte(addr, '?'); idx >= 0 {
			addr = addr[:idx]
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" && emailExactRegex.MatchString(addr) {
			seen[addr] = true
		}
	})

	doc.Find("script,style,noscript").Remove()
	for _, email := range ExtractEmailsFromText(doc.Text()) {
		seen[email] = true
	}

	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
