package utils

import (
	"context"
	"errors"
	"net"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver(testSettings(), NewMemoryCache())
	r.whoisLookup = func(string) (string, error) { return "", errors.New("whois disabled") }
	return r
}

func notFoundErr(name string) error {
	return &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func TestResolveSortsByPreference(t *testing.T) {
	r := newTestResolver(t)
	r.lookupMX = func(context.Context, string) ([]*net.MX, error) {
		return []*net.MX{
			{Host: "backup.example.com.", Pref: 20},
			{Host: "mx1.example.com.", Pref: 5},
			{Host: "mx2.example.com.", Pref: 10},
		}, nil
	}

	servers, err := r.Resolve(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 3 {
		t.Fatalf("expected 3 servers, got %d", len(servers))
	}
	want := []string{"mx1.example.com", "mx2.example.com", "backup.example.com"}
	for i, host := range want {
		if servers[i].Host != host {
			t.Errorf("server[%d] = %q, want %q", i, servers[i].Host, host)
		}
		if servers[i].Source != "MX" {
			t.Errorf("server[%d].Source = %q, want MX", i, servers[i].Source)
		}
		if servers[i].Port != 25 {
			t.Errorf("server[%d].Port = %d, want 25", i, servers[i].Port)
		}
	}
}

func TestResolveFallsBackToARecord(t *testing.T) {
	r := newTestResolver(t)
	r.lookupMX = func(_ context.Context, domain string) ([]*net.MX, error) {
		return nil, notFoundErr(domain)
	}
	r.lookupHost = func(context.Context, string) ([]string, error) {
		return []string{"203.0.113.10"}, nil
	}

	servers, err := r.Resolve(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 1 || servers[0].Host != "203.0.113.10" || servers[0].Source != "A" {
		t.Errorf("unexpected fallback servers: %+v", servers)
	}
}

func TestResolveNoMailServer(t *testing.T) {
	r := newTestResolver(t)
	r.lookupMX = func(_ context.Context, domain string) ([]*net.MX, error) {
		return nil, notFoundErr(domain)
	}
	r.lookupHost = func(_ context.Context, domain string) ([]string, error) {
		return nil, notFoundErr(domain)
	}
	r.whoisLookup = func(string) (string, error) { return "No match for domain", nil }

	_, err := r.Resolve(context.Background(), "dead.example")
	var noServer *NoMailServerError
	if !errors.As(err, &noServer) {
		t.Fatalf("expected NoMailServerError, got %v", err)
	}
	if noServer.Hint == "" {
		t.Error("expected a whois-derived registration hint")
	}
}

func TestResolveTimeoutIsNotNoRecords(t *testing.T) {
	r := newTestResolver(t)
	timeout := &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true}
	r.lookupMX = func(context.Context, string) ([]*net.MX, error) {
		return nil, timeout
	}
	r.lookupHost = func(context.Context, string) ([]string, error) {
		t.Fatal("A fallback must not run on a resolver failure")
		return nil, nil
	}

	_, err := r.Resolve(context.Background(), "slow.example")
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestResolveUsesCache(t *testing.T) {
	r := newTestResolver(t)
	calls := 0
	r.lookupMX = func(context.Context, string) ([]*net.MX, error) {
		calls++
		return []*net.MX{{Host: "mx.example.com.", Pref: 10}}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 MX lookup, got %d", calls)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "example.com"); ok {
		t.Fatal("empty cache should miss")
	}
	servers := []MailServer{{Host: "mx.example.com", Port: 25, Source: "MX"}}
	c.Set(ctx, "example.com", servers)
	got, ok := c.Get(ctx, "example.com")
	if !ok || len(got) != 1 || got[0].Host != "mx.example.com" {
		t.Errorf("cache returned %v, %t", got, ok)
	}
}
