package utils

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"

	"mailbeacon/config"
)

// MailServer is one resolved mail exchanger. An ordered slice represents
// fallback priority: ascending preference, tried first to last.
type MailServer struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Preference uint16 `json:"preference"`
	Source     string `json:"source"` // "MX" or "A"
}

// Resolver finds the mail servers for a bare domain: MX records sorted by
// preference, with an A-record fallback when the domain has no MX at all.
// A DNS timeout or server failure is NOT the same as "no records" and never
// triggers the fallback.
type Resolver struct {
	settings config.Settings
	cache    MailServerCache
	log      *logrus.Entry

	lookupMX    func(ctx context.Context, domain string) ([]*net.MX, error)
	lookupHost  func(ctx context.Context, domain string) ([]string, error)
	whoisLookup func(domain string) (string, error)
}

func NewResolver(settings config.Settings, cache MailServerCache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}

	var next uint32
	servers := settings.DNSServers
	resolver := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			server := servers[atomic.AddUint32(&next, 1)%uint32(len(servers))]
			d := net.Dialer{Timeout: settings.DNSTimeout}
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}

	return &Resolver{
		settings:    settings,
		cache:       cache,
		log:         logrus.WithField("component", "resolver"),
		lookupMX:    resolver.LookupMX,
		lookupHost:  resolver.LookupHost,
		whoisLookup: func(domain string) (string, error) { return whois.Whois(domain) },
	}
}

// Resolve returns the ordered mail servers for domain, consulting the cache
// first. Failure modes: *NoMailServerError when the domain has neither MX nor
// A records, *ResolutionError when the resolver itself was unreachable.
func (r *Resolver) Resolve(ctx context.Context, domain string) ([]MailServer, error) {
	if servers, ok := r.cache.Get(ctx, domain); ok {
		return servers, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.settings.DNSTimeout)
	defer cancel()

	records, err := r.lookupMX(lookupCtx, domain)
	if err != nil && !isNotFound(err) {
		r.log.WithField("domain", domain).Warnf("MX lookup failed: %v", err)
		return nil, &ResolutionError{Domain: domain, Err: err}
	}

	var servers []MailServer
	for _, mx := range records {
		host := strings.TrimSuffix(mx.Host, ".")
		if host == "" {
			continue
		}
		servers = append(servers, MailServer{
			Host:       host,
			Port:       25,
			Preference: mx.Pref,
			Source:     "MX",
		})
	}

	if len(servers) == 0 {
		// NXDOMAIN or an empty answer: the domain names no mail exchanger,
		// so fall back to the domain's own A record.
		fallback, err := r.resolveAFallback(ctx, domain)
		if err != nil {
			return nil, err
		}
		servers = []MailServer{fallback}
	} else {
		// Ascending preference, ties kept in query order.
		sort.SliceStable(servers, func(i, j int) bool {
			return servers[i].Preference < servers[j].Preference
		})
	}

	r.log.WithFields(logrus.Fields{
		"domain":  domain,
		"servers": len(servers),
		"source":  servers[0].Source,
	}).Debug("resolved mail servers")

	r.cache.Set(ctx, domain, servers)
	return servers, nil
}

func (r *Resolver) resolveAFallback(ctx context.Context, domain string) (MailServer, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.settings.DNSTimeout)
	defer cancel()

	addrs, err := r.lookupHost(lookupCtx, domain)
	if err != nil {
		if isNotFound(err) {
			return MailServer{}, &NoMailServerError{Domain: domain, Hint: r.registrationHint(domain)}
		}
		r.log.WithField("domain", domain).Warnf("A lookup failed: %v", err)
		return MailServer{}, &ResolutionError{Domain: domain, Err: err}
	}
	if len(addrs) == 0 {
		return MailServer{}, &NoMailServerError{Domain: domain, Hint: r.registrationHint(domain)}
	}

	r.log.WithField("domain", domain).Infof("no MX records, using A record %s as mail server", addrs[0])
	return MailServer{Host: addrs[0], Port: 25, Preference: 0, Source: "A"}, nil
}

// registrationHint asks whois whether the domain exists at all, so the error
// can tell "registered but accepts no mail" from "typo / unregistered".
// Best effort: any whois failure yields an empty hint.
func (r *Resolver) registrationHint(domain string) string {
	raw, err := r.whoisLookup(domain)
	if err != nil {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "no match") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no entries found") {
		return "domain does not appear to be registered"
	}
	return ""
}

func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
