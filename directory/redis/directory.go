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

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
)

// DefaultKeyPrefix namespaces the directory keys
const DefaultKeyPrefix = "silo:directory:"

const (
	fieldIdentity   = "identity"
	fieldActivation = "activation"
	fieldHost       = "host"
	fieldTombstone  = "tombstone"
)

// registerScript stores the entry unless a live entry for another activation exists.
// It replies {1} on success and {0, host, activation} with the winner on conflict.
var registerScript = goredis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'activation', 'host', 'tombstone')
if cur[1] and (not cur[3]) and cur[1] ~= ARGV[1] then
  return {0, cur[2], cur[1]}
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'identity', ARGV[3], 'activation', ARGV[1], 'host', ARGV[2])
return {1}
`)

// deregisterScript removes the entry or turns it into an expiring tombstone
var deregisterScript = goredis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'activation', 'tombstone')
if (not cur[1]) or cur[1] ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[2]) <= 0 then
  redis.call('DEL', KEYS[1])
  return 1
end
if cur[2] then
  return 1
end
redis.call('HSET', KEYS[1], 'tombstone', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// Directory is a directory.Directory backed by Redis hashes.
// Tombstones rely on key expiry so no sweeper is needed.
type Directory struct {
	client goredis.UniversalClient
	prefix string
}

var (
	_ directory.Directory  = (*Directory)(nil)
	_ directory.HostPurger = (*Directory)(nil)
)

// Option configures the Redis directory
type Option func(*Directory)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) Option {
	return func(d *Directory) {
		d.prefix = prefix
	}
}

// New creates a Redis directory. The caller owns the client.
func New(client goredis.UniversalClient, opts ...Option) *Directory {
	d := &Directory{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register implements directory.Directory
func (d *Directory) Register(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, host string) (*directory.Entry, error) {
	reply, err := registerScript.Run(ctx, d.client,
		[]string{d.key(id)},
		activationID.String(), host, id.String(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis directory: register %s: %w", id, err)
	}

	if len(reply) == 3 {
		winnerHost, _ := reply[1].(string)
		winner, _ := reply[2].(string)
		return &directory.Entry{
			Identity:     id,
			ActivationID: identity.ActivationID(winner),
			Host:         winnerHost,
		}, gerrors.ErrDuplicateActivation
	}

	return &directory.Entry{
		Identity:     id,
		ActivationID: activationID,
		Host:         host,
	}, nil
}

// Lookup implements directory.Directory
func (d *Directory) Lookup(ctx context.Context, id *identity.Identity) (*directory.Entry, error) {
	fields, err := d.client.HGetAll(ctx, d.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis directory: lookup %s: %w", id, err)
	}

	if len(fields) == 0 || fields[fieldActivation] == "" {
		return nil, directory.ErrEntryNotFound
	}

	entry := &directory.Entry{
		Identity:     id,
		ActivationID: identity.ActivationID(fields[fieldActivation]),
		Host:         fields[fieldHost],
	}

	if raw, ok := fields[fieldTombstone]; ok {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis directory: invalid tombstone of %s: %w", id, err)
		}
		entry.TombstoneExpiry = time.Unix(0, nanos)
	}
	return entry, nil
}

// Deregister implements directory.Directory
func (d *Directory) Deregister(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, grace time.Duration) error {
	return d.deregister(ctx, d.key(id), activationID.String(), grace)
}

// PurgeHost implements directory.HostPurger
func (d *Directory) PurgeHost(ctx context.Context, host string) (int, error) {
	purged := 0
	iter := d.client.Scan(ctx, 0, d.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		values, err := d.client.HMGet(ctx, key, fieldHost, fieldActivation).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return purged, err
		}

		owner, _ := values[0].(string)
		activationID, _ := values[1].(string)
		if owner != host || activationID == "" {
			continue
		}

		if err := d.deregister(ctx, key, activationID, 0); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, iter.Err()
}

// Close implements directory.Directory. The client is left open.
func (d *Directory) Close() error {
	return nil
}

func (d *Directory) deregister(ctx context.Context, key, activationID string, grace time.Duration) error {
	expiry := time.Now().Add(grace).UnixNano()
	err := deregisterScript.Run(ctx, d.client,
		[]string{key},
		activationID, grace.Milliseconds(), expiry,
	).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis directory: deregister %s: %w", strings.TrimPrefix(key, d.prefix), err)
	}
	return nil
}

func (d *Directory) key(id *identity.Identity) string {
	return d.prefix + id.String()
}
