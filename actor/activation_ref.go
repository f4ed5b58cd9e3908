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

package actor

import (
	"fmt"

	"github.com/tochemey/silo/identity"
)

// ActivationRef points at one activation of an actor, local or hosted elsewhere.
// A reference goes stale once its activation is deactivated; callers then resolve again.
type ActivationRef struct {
	identity     *identity.Identity
	activationID identity.ActivationID
	host         string
	local        bool
}

func localRef(a *activation, address string) *ActivationRef {
	return &ActivationRef{
		identity:     a.identity,
		activationID: a.id,
		host:         address,
		local:        true,
	}
}

func remoteRef(id *identity.Identity, activationID identity.ActivationID, host string) *ActivationRef {
	return &ActivationRef{
		identity:     id,
		activationID: activationID,
		host:         host,
	}
}

// Identity returns the actor identity
func (r *ActivationRef) Identity() *identity.Identity {
	return r.identity
}

// ActivationID returns the id of the referenced activation
func (r *ActivationRef) ActivationID() identity.ActivationID {
	return r.activationID
}

// Host returns the address of the host running the activation
func (r *ActivationRef) Host() string {
	return r.host
}

// IsLocal reports whether the activation runs on the host that resolved it
func (r *ActivationRef) IsLocal() bool {
	return r.local
}

func (r *ActivationRef) String() string {
	return fmt.Sprintf("%s@%s[%s]", r.identity.String(), r.host, r.activationID)
}
