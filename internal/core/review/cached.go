package review

import (
	"context"
	"strconv"
	"time"

	"github.com/colonyops/wreckit/internal/core/kv"
	"github.com/colonyops/wreckit/internal/core/logging"
)

// Cached wraps a Provider and memoizes Status results. Merged and closed are
// final and cached without expiry; open is cached for ttl.
type Cached struct {
	Provider
	cache *kv.Bucket[Status]
	ttl   time.Duration
}

// NewCached returns a caching provider backed by store.
func NewCached(p Provider, store kv.Store, ttl time.Duration) *Cached {
	return &Cached{
		Provider: p,
		cache:    kv.NewBucket[Status](store, "review-status"),
		ttl:      ttl,
	}
}

func (c *Cached) Status(ctx context.Context, number int) (Status, error) {
	key := strconv.Itoa(number)
	log := logging.Component("review")

	if st, ok, err := c.cache.Lookup(ctx, key); err == nil && ok {
		return st, nil
	} else if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("review status cache read failed")
	}

	st, err := c.Provider.Status(ctx, number)
	if err != nil {
		return "", err
	}

	switch {
	case st == StatusMerged, st == StatusClosed:
		err = c.cache.Put(ctx, key, st, 0)
	case c.ttl > 0:
		err = c.cache.Put(ctx, key, st, c.ttl)
	}
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("review status cache write failed")
	}

	return st, nil
}
