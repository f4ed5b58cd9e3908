// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package directory

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/log"
)

// DefaultCacheSize is the number of locations cached by a Client
const DefaultCacheSize = 100_000

// Client is the per-host view of the Directory. It caches live entries and is
// invalidated by the deactivation and forwarding paths when an entry turns stale.
// Concurrent misses on the same identity share one directory lookup.
type Client struct {
	directory Directory
	cache     *lru.Cache
	group     singleflight.Group
	logger    log.Logger
	// bumped on every invalidation; a fetch that overlaps one is not cached
	generation atomic.Uint64
}

// NewClient creates a Client caching up to size entries
func NewClient(directory Directory, size int, logger log.Logger) (*Client, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = log.DiscardLogger
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Client{
		directory: directory,
		cache:     cache,
		logger:    logger,
	}, nil
}

// Directory returns the underlying directory
func (c *Client) Directory() Directory {
	return c.directory
}

// Lookup returns the cached entry of id or fetches it from the directory.
// Tombstones are returned but never cached.
func (c *Client) Lookup(ctx context.Context, id *identity.Identity) (*Entry, error) {
	key := id.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Entry), nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		generation := c.generation.Load()
		// joined callers must not fail because the leader gave up
		entry, err := c.directory.Lookup(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		if !entry.IsTombstone() && c.generation.Load() == generation {
			c.cache.Add(key, entry)
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Entry), nil
}

// LookupFresh bypasses the cache
func (c *Client) LookupFresh(ctx context.Context, id *identity.Identity) (*Entry, error) {
	c.generation.Inc()
	c.cache.Remove(id.String())
	return c.Lookup(ctx, id)
}

// Register registers the activation and caches the resulting owner.
// On conflict the winner is cached and returned with the conflict error.
func (c *Client) Register(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, host string) (*Entry, error) {
	entry, err := c.directory.Register(ctx, id, activationID, host)
	if entry != nil && (err == nil || errors.Is(err, gerrors.ErrDuplicateActivation)) {
		c.cache.Add(id.String(), entry)
	}
	return entry, err
}

// Deregister drops the cached entry then deregisters the activation
func (c *Client) Deregister(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, grace time.Duration) error {
	c.Invalidate(id, activationID)
	return c.directory.Deregister(ctx, id, activationID, grace)
}

// Invalidate drops the cached entry of id when it still names activationID.
// An empty activationID drops the entry unconditionally.
func (c *Client) Invalidate(id *identity.Identity, activationID identity.ActivationID) {
	c.generation.Inc()
	key := id.String()
	cached, ok := c.cache.Peek(key)
	if !ok {
		return
	}
	if activationID.IsZero() || cached.(*Entry).Matches(activationID) {
		c.cache.Remove(key)
		c.logger.Debugf("directory cache entry of %s invalidated", key)
	}
}

// InvalidateHost drops every cached entry pointing at host
func (c *Client) InvalidateHost(host string) int {
	c.generation.Inc()
	dropped := 0
	for _, key := range c.cache.Keys() {
		cached, ok := c.cache.Peek(key)
		if ok && cached.(*Entry).Host == host {
			c.cache.Remove(key)
			dropped++
		}
	}
	return dropped
}

// Cached returns the cached entry of id without touching the directory
func (c *Client) Cached(id *identity.Identity) (*Entry, bool) {
	cached, ok := c.cache.Peek(id.String())
	if !ok {
		return nil, false
	}
	return cached.(*Entry), true
}

// Len returns the number of cached entries
func (c *Client) Len() int {
	return c.cache.Len()
}
