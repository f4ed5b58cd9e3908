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

package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/storage"
)

const (
	fileMode   os.FileMode = 0o600
	bucketName             = "states"
)

var openTimeout = 5 * time.Second

// record is the stored form of a state
type record struct {
	Version uint64 `cbor:"1,keyasint"`
	Data    []byte `cbor:"2,keyasint"`
}

// Provider implements storage.Provider using go.etcd.io/bbolt.
// The version check and the write happen in the same update transaction.
type Provider struct {
	db     *bbolt.DB
	bucket []byte
	closed atomic.Bool
}

var _ storage.Provider = (*Provider)(nil)

// New opens, or creates, the database at path
func New(path string) (*Provider, error) {
	db, err := bbolt.Open(path, fileMode, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("storage/bolt: opening database: %w", err)
	}

	bucket := []byte(bucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage/bolt: initializing bucket: %w", err)
	}

	return &Provider{db: db, bucket: bucket}, nil
}

// Load implements storage.Provider
func (p *Provider) Load(ctx context.Context, id *identity.Identity) (*storage.State, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}

	var state *storage.State
	err := p.db.View(func(tx *bbolt.Tx) error {
		rec, err := p.get(tx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return storage.ErrStateNotFound
		}
		state = &storage.State{Data: rec.Data, Version: rec.Version}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Save implements storage.Provider
func (p *Provider) Save(ctx context.Context, id *identity.Identity, state *storage.State) error {
	if err := p.check(ctx); err != nil {
		return err
	}

	next := state.Version + 1
	err := p.db.Update(func(tx *bbolt.Tx) error {
		rec, err := p.get(tx, id)
		if err != nil {
			return err
		}

		var stored uint64
		if rec != nil {
			stored = rec.Version
		}
		if stored != state.Version {
			return storage.ErrStateConflict
		}

		bytea, err := cbor.Marshal(record{Version: next, Data: state.Data})
		if err != nil {
			return err
		}
		return tx.Bucket(p.bucket).Put([]byte(id.String()), bytea)
	})
	if err != nil {
		return err
	}

	state.Version = next
	return nil
}

// Delete implements storage.Provider
func (p *Provider) Delete(ctx context.Context, id *identity.Identity) error {
	if err := p.check(ctx); err != nil {
		return err
	}

	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(id.String()))
	})
}

// Close implements storage.Provider. Close is idempotent.
func (p *Provider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

func (p *Provider) check(ctx context.Context) error {
	if p.closed.Load() {
		return storage.ErrProviderClosed
	}
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func (p *Provider) get(tx *bbolt.Tx, id *identity.Identity) (*record, error) {
	bucket := tx.Bucket(p.bucket)
	if bucket == nil {
		return nil, errors.New("storage/bolt: bucket missing")
	}

	raw := bucket.Get([]byte(id.String()))
	if raw == nil {
		return nil, nil
	}

	rec := new(record)
	if err := cbor.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("storage/bolt: decoding state of %s: %w", id, err)
	}
	// values returned by bbolt are only valid for the life of the transaction
	data := make([]byte, len(rec.Data))
	copy(data, rec.Data)
	rec.Data = data
	return rec, nil
}
