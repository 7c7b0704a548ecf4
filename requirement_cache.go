package negotiate

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/albertocavalcante/go-negotiate/version"
)

// RequirementCache stores parsed requirement strings. Only successful parses
// are cached.
type RequirementCache interface {
	Get(requirement string) (version.Range, bool)
	Set(requirement string, r version.Range)
}

var _ RequirementCache = (*MemoryRequirementCache)(nil)

// MemoryRequirementCache is an in-memory RequirementCache with expiry.
type MemoryRequirementCache struct {
	cache *gocache.Cache
}

// NewRequirementCache creates a cache whose entries expire after ttl.
// A ttl of zero keeps entries forever.
func NewRequirementCache(ttl time.Duration) *MemoryRequirementCache {
	return &MemoryRequirementCache{cache: gocache.New(ttl, 2*ttl)}
}

// Get returns the cached range for requirement.
func (c *MemoryRequirementCache) Get(requirement string) (version.Range, bool) {
	v, found := c.cache.Get(requirement)
	if !found {
		return version.Range{}, false
	}
	r, ok := v.(version.Range)
	return r, ok
}

// Set stores r under requirement with the default expiry.
func (c *MemoryRequirementCache) Set(requirement string, r version.Range) {
	c.cache.SetDefault(requirement, r)
}

// Len returns the number of cached entries, including expired ones not yet
// cleaned up.
func (c *MemoryRequirementCache) Len() int {
	return c.cache.ItemCount()
}
