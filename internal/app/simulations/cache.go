package simulations

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
)

// resultCache keeps finished results keyed by dataset version and request.
type resultCache struct {
	cache *cache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{cache: cache.New(ttl, ttl*2)}
}

func cacheKey(version string, req domainsims.Request) string {
	return fmt.Sprintf("%s|%s|%d|%d", version, req.Team, req.Rank, req.Trials)
}

func (c *resultCache) get(key string) (domainsims.Result, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return domainsims.Result{}, false
	}
	result, ok := v.(domainsims.Result)
	return result, ok
}

func (c *resultCache) set(key string, result domainsims.Result) {
	c.cache.SetDefault(key, result)
}

func (c *resultCache) flush() {
	c.cache.Flush()
}

func (c *resultCache) len() int {
	return c.cache.ItemCount()
}
