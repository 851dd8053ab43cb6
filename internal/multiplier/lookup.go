package multiplier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// ErrNoEntity means the lookup ran but no entity claims the callsign.
var ErrNoEntity = errors.New("no entity for callsign")

// EntityLookup maps a callsign to its DXCC entity.
type EntityLookup interface {
	Lookup(ctx context.Context, callsign string) (model.Entity, error)
}

// PrefixTable resolves entities by longest callsign prefix. It is built once
// and never modified.
type PrefixTable struct {
	byPrefix map[string]model.Entity
	longest  int
}

// NewPrefixTable indexes every space-separated prefix of every entity. When
// two entities claim the same prefix the first one wins.
func NewPrefixTable(entities []model.Entity) *PrefixTable {
	t := &PrefixTable{byPrefix: map[string]model.Entity{}}
	for _, e := range entities {
		for _, p := range strings.Fields(model.NormalizeCall(e.Prefix)) {
			if _, dup := t.byPrefix[p]; dup {
				continue
			}
			t.byPrefix[p] = e
			t.longest = max(t.longest, len(p))
		}
	}
	return t
}

// Lookup implements EntityLookup.
func (t *PrefixTable) Lookup(_ context.Context, callsign string) (model.Entity, error) {
	key := prefixKey(callsign)
	for n := min(len(key), t.longest); n > 0; n-- {
		if e, ok := t.byPrefix[key[:n]]; ok {
			return e, nil
		}
	}
	return model.Entity{}, fmt.Errorf("%s: %w", callsign, ErrNoEntity)
}

// prefixKey picks the part of a callsign that determines its entity: a
// portable prefix such as the KH6 of KH6/K6ABC, else the base call.
func prefixKey(callsign string) string {
	call := model.NormalizeCall(callsign)
	base := model.BaseCall(call)
	if parts := strings.Split(call, "/"); len(parts) > 1 && parts[0] != "" && parts[0] != base &&
		len(parts[0]) < len(base) {
		return parts[0]
	}
	return base
}

// CachedLookup memoizes another lookup. Misses are cached too; transport
// errors are not.
type CachedLookup struct {
	next  EntityLookup
	cache *cache.Cache
}

type cachedEntity struct {
	entity model.Entity
	found  bool
}

// NewCachedLookup wraps next with a cache whose entries live for ttl.
// Expired entries are dropped on access; no janitor goroutine is started.
func NewCachedLookup(next EntityLookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, cache: cache.New(ttl, 0)}
}

// Lookup implements EntityLookup.
func (c *CachedLookup) Lookup(ctx context.Context, callsign string) (model.Entity, error) {
	key := model.NormalizeCall(callsign)
	if v, ok := c.cache.Get(key); ok {
		hit := v.(cachedEntity)
		if !hit.found {
			return model.Entity{}, fmt.Errorf("%s: %w", callsign, ErrNoEntity)
		}
		return hit.entity, nil
	}

	e, err := c.next.Lookup(ctx, callsign)
	switch {
	case err == nil:
		c.cache.Set(key, cachedEntity{entity: e, found: true}, cache.DefaultExpiration)
	case errors.Is(err, ErrNoEntity):
		c.cache.Set(key, cachedEntity{}, cache.DefaultExpiration)
	}
	return e, err
}

// Len returns the number of cached entries.
func (c *CachedLookup) Len() int {
	return c.cache.ItemCount()
}
