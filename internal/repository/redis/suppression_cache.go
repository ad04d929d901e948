// Package redis provides Redis-backed decorators for repositories.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/service/suppression"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a membership answer may be served from cache.
const DefaultTTL = 10 * time.Minute

const (
	memberYes = "1"
	memberNo  = "0"
)

// CachedRepo caches suppression membership answers in Redis. Reads that
// miss, and every write, go to the wrapped repository. Redis failures are
// not fatal: the decorator falls back to the wrapped repository.
type CachedRepo struct {
	suppression.Repository
	client *goredis.Client
	ttl    time.Duration
}

// NewCachedRepo wraps next with a Redis membership cache. A non-positive
// ttl uses DefaultTTL.
func NewCachedRepo(next suppression.Repository, client *goredis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedRepo{Repository: next, client: client, ttl: ttl}
}

// Key returns the cache key for an address. Addresses are canonical, so
// case variants share one key.
func Key(orgID string, addr emailaddr.Address) string {
	return fmt.Sprintf("supp:%s:%s", orgID, addr.String())
}

func (c *CachedRepo) IsSuppressed(ctx context.Context, orgID string, addr emailaddr.Address) (bool, error) {
	key := Key(orgID, addr)
	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return val == memberYes, nil
	}

	ok, err := c.Repository.IsSuppressed(ctx, orgID, addr)
	if err != nil {
		return false, err
	}
	c.client.Set(ctx, key, flag(ok), c.ttl)
	return ok, nil
}

func (c *CachedRepo) FilterSuppressed(ctx context.Context, orgID string, addrs []emailaddr.Address) ([]emailaddr.Address, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(addrs))
	for i, a := range addrs {
		keys[i] = Key(orgID, a)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return c.Repository.FilterSuppressed(ctx, orgID, addrs)
	}

	var hits, misses []emailaddr.Address
	for i, v := range vals {
		s, ok := v.(string)
		switch {
		case !ok:
			misses = append(misses, addrs[i])
		case s == memberYes:
			hits = append(hits, addrs[i])
		}
	}
	if len(misses) == 0 {
		emailaddr.Sort(hits)
		return hits, nil
	}

	found, err := c.Repository.FilterSuppressed(ctx, orgID, misses)
	if err != nil {
		return nil, err
	}

	suppressed := make(map[emailaddr.Address]bool, len(found))
	for _, a := range found {
		suppressed[a] = true
	}
	pipe := c.client.Pipeline()
	for _, a := range misses {
		pipe.Set(ctx, Key(orgID, a), flag(suppressed[a]), c.ttl)
	}
	pipe.Exec(ctx)

	out := append(hits, found...)
	emailaddr.Sort(out)
	return out, nil
}

func (c *CachedRepo) Suppress(ctx context.Context, s *domain.Suppression) error {
	if err := c.Repository.Suppress(ctx, s); err != nil {
		return err
	}
	c.client.Del(ctx, Key(s.OrganizationID, s.Email))
	return nil
}

func (c *CachedRepo) Remove(ctx context.Context, orgID string, addr emailaddr.Address) error {
	err := c.Repository.Remove(ctx, orgID, addr)
	c.client.Del(ctx, Key(orgID, addr))
	return err
}

func flag(ok bool) string {
	if ok {
		return memberYes
	}
	return memberNo
}
