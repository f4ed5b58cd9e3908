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
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/log"
)

// Props exposes the activation details to the lifecycle hooks
type Props struct {
	identity     *identity.Identity
	activationID identity.ActivationID
	host         Host
	state        *State
	logger       log.Logger
}

func newProps(a *activation, host Host, logger log.Logger) *Props {
	return &Props{
		identity:     a.identity,
		activationID: a.id,
		host:         host,
		state:        a.state,
		logger:       logger.With("actor", a.identity.String(), "activation", a.id.String()),
	}
}

// Identity returns the actor identity
func (p *Props) Identity() *identity.Identity {
	return p.identity
}

// ActivationID returns the id of the activation being activated or deactivated
func (p *Props) ActivationID() identity.ActivationID {
	return p.activationID
}

// Host returns the host running the activation
func (p *Props) Host() Host {
	return p.host
}

// State returns the persisted state handle.
// It is loaded before OnActivate and written back after OnDeactivate when dirty.
func (p *Props) State() *State {
	return p.state
}

// Logger returns the host logger tagged with the actor identity and activation id
func (p *Props) Logger() log.Logger {
	return p.logger
}
