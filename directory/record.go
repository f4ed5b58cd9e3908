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
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/silo/identity"
)

// record is the wire form of an Entry stored by remote directory backends
type record struct {
	Identity        string `cbor:"1,keyasint"`
	ActivationID    string `cbor:"2,keyasint"`
	Host            string `cbor:"3,keyasint"`
	TombstoneExpiry int64  `cbor:"4,keyasint,omitempty"`
}

// MarshalEntry encodes an Entry with CBOR
func MarshalEntry(entry *Entry) ([]byte, error) {
	rec := record{
		Identity:     entry.Identity.String(),
		ActivationID: entry.ActivationID.String(),
		Host:         entry.Host,
	}
	if entry.IsTombstone() {
		rec.TombstoneExpiry = entry.TombstoneExpiry.UnixNano()
	}
	return cbor.Marshal(rec)
}

// UnmarshalEntry decodes an Entry encoded by MarshalEntry
func UnmarshalEntry(data []byte) (*Entry, error) {
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("directory: decode entry: %w", err)
	}

	id, err := identity.Parse(rec.Identity)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Identity:     id,
		ActivationID: identity.ActivationID(rec.ActivationID),
		Host:         rec.Host,
	}
	if rec.TombstoneExpiry > 0 {
		entry.TombstoneExpiry = time.Unix(0, rec.TombstoneExpiry)
	}
	return entry, nil
}
