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

package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
)

const separator = "/"

var kindPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_\.]*$`)

// Identity names a logical actor independently of any in-memory instance.
// It is the (kind, key) pair used as directory key, catalog key and storage key.
// Identity is immutable and safe for concurrent use.
type Identity struct {
	kind string
	key  string
}

var _ validation.Validator = (*Identity)(nil)

// New creates an Identity. Call Validate before trusting user input.
func New(kind, key string) *Identity {
	return &Identity{kind: kind, key: key}
}

// Parse rebuilds an Identity from its "kind/key" form
func Parse(s string) (*Identity, error) {
	parts := strings.SplitN(s, separator, 2)
	if len(parts) != 2 {
		return nil, gerrors.NewErrInvalidIdentity(fmt.Errorf("%q is not of the form kind/key", s))
	}

	id := New(parts[0], parts[1])
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return id, nil
}

// Kind returns the actor type
func (x *Identity) Kind() string {
	return x.kind
}

// Key returns the primary key within the kind
func (x *Identity) Key() string {
	return x.key
}

// String returns "kind/key"
func (x *Identity) String() string {
	if x == nil {
		return ""
	}
	return x.kind + separator + x.key
}

// Equal reports whether both identities name the same actor
func (x *Identity) Equal(other *Identity) bool {
	if x == nil || other == nil {
		return x == other
	}
	return x.kind == other.kind && x.key == other.key
}

// Validate implements validation.Validator.
func (x *Identity) Validate() error {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("kind", x.kind)).
		AddValidator(validation.NewEmptyStringValidator("key", x.key)).
		AddValidator(validation.NewPatternValidator("kind", kindPattern, x.kind)).
		AddAssertion(len(x.key) <= 255, "actor key is too long. Maximum length is 255").
		Validate(); err != nil {
		return gerrors.NewErrInvalidIdentity(err)
	}
	return nil
}

// ActivationID identifies one in-memory instance of an actor. A new one is minted
// every time the actor is activated, so successive activations never share it.
type ActivationID string

// NewActivationID mints a random ActivationID
func NewActivationID() ActivationID {
	return ActivationID(uuid.NewString())
}

// String returns the raw id
func (x ActivationID) String() string {
	return string(x)
}

// IsZero reports whether the id is unset
func (x ActivationID) IsZero() bool {
	return x == ""
}
