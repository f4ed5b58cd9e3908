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

package natskv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
)

const keyPrefix = "e."

// errConflict signals a lost optimistic update
var errConflict = errors.New("natskv: revision conflict")

// Directory is a directory.Directory backed by a JetStream key-value bucket.
// Every mutation is a compare-and-set on the entry revision.
// Expired tombstones are removed lazily by the next reader.
type Directory struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

var (
	_ directory.Directory  = (*Directory)(nil)
	_ directory.HostPurger = (*Directory)(nil)
)

// New connects to NATS and opens, or creates, the directory bucket
func New(config *Config) (*Directory, error) {
	if config == nil {
		return nil, errors.New("natskv: config is required")
	}

	config.sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := nats.Connect(config.URL, nats.Timeout(config.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("natskv: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natskv: jetstream: %w", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: config.Bucket})
		if err != nil && errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			kv, err = js.KeyValue(config.Bucket)
		}
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("natskv: create bucket: %w", err)
		}
	}

	return &Directory{conn: conn, kv: kv}, nil
}

// Register implements directory.Directory
func (d *Directory) Register(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, host string) (*directory.Entry, error) {
	entry := &directory.Entry{Identity: id, ActivationID: activationID, Host: host}
	payload, err := directory.MarshalEntry(entry)
	if err != nil {
		return nil, err
	}

	key := encodeKey(id)
	for range maxCASAttempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, revision, err := d.get(key)
		if err != nil {
			return nil, err
		}

		if current != nil && !current.IsTombstone() && !current.Matches(activationID) {
			return current, gerrors.ErrDuplicateActivation
		}

		if current == nil && revision == 0 {
			_, err = d.kv.Create(key, payload)
		} else {
			_, err = d.kv.Update(key, payload, revision)
		}

		switch {
		case err == nil:
			return entry, nil
		case isRevisionConflict(err):
			continue
		default:
			return nil, fmt.Errorf("natskv: register %s: %w", id, err)
		}
	}
	return nil, fmt.Errorf("natskv: register %s: %w", id, errConflict)
}

// Lookup implements directory.Directory
func (d *Directory) Lookup(_ context.Context, id *identity.Identity) (*directory.Entry, error) {
	entry, _, err := d.get(encodeKey(id))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, directory.ErrEntryNotFound
	}
	return entry, nil
}

// Deregister implements directory.Directory
func (d *Directory) Deregister(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, grace time.Duration) error {
	key := encodeKey(id)
	for range maxCASAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		current, revision, err := d.get(key)
		if err != nil {
			return err
		}

		if current == nil || !current.Matches(activationID) {
			return nil
		}

		if grace <= 0 {
			err = d.kv.Delete(key, nats.LastRevision(revision))
		} else {
			if current.IsTombstone() {
				return nil
			}

			current.TombstoneExpiry = time.Now().Add(grace)
			payload, encodeErr := directory.MarshalEntry(current)
			if encodeErr != nil {
				return encodeErr
			}
			_, err = d.kv.Update(key, payload, revision)
		}

		switch {
		case err == nil:
			return nil
		case isRevisionConflict(err):
			continue
		default:
			return fmt.Errorf("natskv: deregister %s: %w", id, err)
		}
	}
	return fmt.Errorf("natskv: deregister %s: %w", id, errConflict)
}

// PurgeHost implements directory.HostPurger
func (d *Directory) PurgeHost(ctx context.Context, host string) (int, error) {
	keys, err := d.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("natskv: list keys: %w", err)
	}

	purged := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return purged, err
		}

		entry, revision, err := d.get(key)
		if err != nil {
			return purged, err
		}

		if entry == nil || entry.Host != host {
			continue
		}

		if err := d.kv.Delete(key, nats.LastRevision(revision)); err != nil {
			if isRevisionConflict(err) {
				continue
			}
			return purged, err
		}
		purged++
	}
	return purged, nil
}

// Close releases the NATS connection. Close is idempotent.
func (d *Directory) Close() error {
	if d.conn == nil {
		return nil
	}
	d.conn.Close()
	d.conn = nil
	return nil
}

// get returns the stored entry with its revision. A nil entry with a non zero revision
// means the key exists as a delete marker or as an expired tombstone.
func (d *Directory) get(key string) (*directory.Entry, uint64, error) {
	kve, err := d.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("natskv: get %s: %w", key, err)
	}

	if kve.Operation() != nats.KeyValuePut {
		return nil, kve.Revision(), nil
	}

	entry, err := directory.UnmarshalEntry(kve.Value())
	if err != nil {
		return nil, 0, err
	}

	if entry.IsTombstone() && !time.Now().Before(entry.TombstoneExpiry) {
		_ = d.kv.Delete(key, nats.LastRevision(kve.Revision()))
		return nil, 0, nil
	}
	return entry, kve.Revision(), nil
}

func encodeKey(id *identity.Identity) string {
	return keyPrefix + base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// isRevisionConflict returns true when the NATS error indicates a revision mismatch
func isRevisionConflict(err error) bool {
	if errors.Is(err, nats.ErrKeyExists) {
		return true
	}
	var apiErr *nats.APIError
	if errors.As(err, &apiErr) && apiErr != nil && apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence {
		return true
	}
	return false
}
