package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// MailServerCache shares resolved mail servers across the candidates of one
// contact and, optionally, across a whole batch. MX data is stable within a
// run, so there is no invalidation; first successful lookup wins.
type MailServerCache interface {
	Get(ctx context.Context, domain string) ([]MailServer, bool)
	Set(ctx context.Context, domain string, servers []MailServer)
}

// MemoryCache is the default in-process cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]MailServer
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string][]MailServer)}
}

func (c *MemoryCache) Get(_ context.Context, domain string) ([]MailServer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	servers, ok := c.m[domain]
	return servers, ok
}

func (c *MemoryCache) Set(_ context.Context, domain string, servers []MailServer) {
	c.mu.Lock()
	c.m[domain] = servers
	c.mu.Unlock()
}

// RedisCache shares resolved mail servers between processes. Entries expire so
// stale MX data cannot outlive a deployment cycle.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: time.Hour,
	}
}

func (c *RedisCache) Get(ctx context.Context, domain string) ([]MailServer, bool) {
	data, err := c.client.Get(ctx, "mailbeacon:mx:"+domain).Bytes()
	if err != nil {
		return nil, false
	}
	var servers []MailServer
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, false
	}
	return servers, true
}

func (c *RedisCache) Set(ctx context.Context, domain string, servers []MailServer) {
	data, err := json.Marshal(servers)
	if err != nil {
		return
	}
	c.client.Set(ctx, "mailbeacon:mx:"+domain, data, c.ttl)
}
