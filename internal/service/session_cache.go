package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"memory-makers/internal/domain"
)

// SessionCache guarda lookups token→sesión para evitar ir a la base en cada
// request autenticado. Los errores del cache se tragan: siempre se puede
// volver a la base.
type SessionCache interface {
	Get(token string) (domain.Session, bool)
	Put(session domain.Session)
	Invalidate(token string)
}

const sessionCacheTTL = 30 * time.Minute

type memorySessionCache struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
}

type memorySessionEntry struct {
	session domain.Session
	expires time.Time
}

func NewMemorySessionCache() SessionCache {
	return &memorySessionCache{
		items: make(map[string]memorySessionEntry),
	}
}

func (c *memorySessionCache) Get(token string) (domain.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[token]
	if !ok {
		return domain.Session{}, false
	}
	if time.Now().UTC().After(entry.expires) {
		delete(c.items, token)
		return domain.Session{}, false
	}
	return entry.session, true
}

func (c *memorySessionCache) Put(session domain.Session) {
	if strings.TrimSpace(session.Token) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[session.Token] = memorySessionEntry{
		session: session,
		expires: time.Now().UTC().Add(sessionCacheTTL),
	}
}

func (c *memorySessionCache) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, token)
}

type redisSessionCache struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionCache(client *redis.Client) SessionCache {
	if client == nil {
		return nil
	}
	return &redisSessionCache{
		client: client,
		prefix: "auth:session:",
	}
}

func (c *redisSessionCache) Get(token string) (domain.Session, bool) {
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+token).Bytes()
	if err != nil {
		return domain.Session{}, false
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false
	}
	return session, true
}

func (c *redisSessionCache) Put(session domain.Session) {
	if strings.TrimSpace(session.Token) == "" {
		return
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+session.Token, raw, sessionCacheTTL).Err()
}

func (c *redisSessionCache) Invalidate(token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.client.Del(ctx, c.prefix+token).Err()
}
