/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjordsales/salesrecon/internal/cache"
)

// cacheEntry also records misses so that a file full of unregistered numbers
// only asks the registry once per number.
type cacheEntry struct {
	Found   bool
	Company Company
}

// Cached wraps a Lookup with a cache. Failed lookups are not cached.
type Cached struct {
	next  Lookup
	cache cache.Cache
	ttl   time.Duration
}

func NewCached(next Lookup, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func cacheKey(orgNr string) string {
	return fmt.Sprintf("registry:enhet:%s", orgNr)
}

func (c *Cached) Lookup(ctx context.Context, orgNr string) (*Company, error) {
	var entry cacheEntry
	err := c.cache.Get(ctx, cacheKey(orgNr), &entry)
	if err == nil {
		if !entry.Found {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, orgNr)
		}
		company := entry.Company
		return &company, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logrus.WithField("org_nr", orgNr).Debugf("registry cache read failed: %v", err)
	}

	company, err := c.next.Lookup(ctx, orgNr)
	switch {
	case err == nil:
		entry = cacheEntry{Found: true, Company: *company}
	case errors.Is(err, ErrNotFound):
		entry = cacheEntry{Found: false}
	default:
		return nil, err
	}

	if setErr := c.cache.Set(ctx, cacheKey(orgNr), entry, c.ttl); setErr != nil {
		logrus.WithField("org_nr", orgNr).Debugf("registry cache write failed: %v", setErr)
	}
	return company, err
}
