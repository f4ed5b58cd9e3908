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

package membership

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/internal/errorschain"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/log"
)

// DefaultLeaveTimeout bounds the graceful leave of the gossip cluster
const DefaultLeaveTimeout = 5 * time.Second

// GossipConfig defines the gossip membership settings
type GossipConfig struct {
	// Name is the host name announced to the cluster. It must be the host transport address.
	Name string
	// BindAddr is the gossip bind address
	BindAddr string
	// BindPort is the gossip bind port
	BindPort int
	// Seeds are gossip addresses of existing members to join
	Seeds []string
	// LeaveTimeout defaults to DefaultLeaveTimeout
	LeaveTimeout time.Duration
	// Logger defaults to log.DefaultLogger
	Logger log.Logger
}

var _ validation.Validator = (*GossipConfig)(nil)

// Validate checks the configuration
func (c *GossipConfig) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Name", c.Name)).
		AddValidator(validation.NewEmptyStringValidator("BindAddr", c.BindAddr)).
		AddAssertion(c.BindPort > 0, "BindPort is invalid").
		Validate()
}

// Gossip is a Provider backed by hashicorp/memberlist
type Gossip struct {
	config     *GossipConfig
	logger     log.Logger
	memberlist *memberlist.Memberlist

	mu        sync.RWMutex
	members   map[string]struct{}
	listeners []func(Event)

	started atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

var _ Provider = (*Gossip)(nil)

// NewGossip creates a Gossip provider. Call Start to join the cluster.
func NewGossip(config *GossipConfig) (*Gossip, error) {
	if config == nil {
		return nil, errors.New("membership: gossip config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.LeaveTimeout <= 0 {
		config.LeaveTimeout = DefaultLeaveTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}

	return &Gossip{
		config:  config,
		logger:  logger,
		members: make(map[string]struct{}),
	}, nil
}

// Start creates the local member and joins the seeds
func (g *Gossip) Start(ctx context.Context) error {
	if g.started.Load() {
		return nil
	}

	eventsCh := make(chan memberlist.NodeEvent, 256)

	mconfig := memberlist.DefaultLANConfig()
	mconfig.Name = g.config.Name
	mconfig.BindAddr = g.config.BindAddr
	mconfig.BindPort = g.config.BindPort
	mconfig.AdvertisePort = g.config.BindPort
	mconfig.LogOutput = io.Discard
	mconfig.Events = &memberlist.ChannelEventDelegate{Ch: eventsCh}

	mlist, err := memberlist.Create(mconfig)
	if err != nil {
		return fmt.Errorf("membership: create memberlist: %w", err)
	}

	if len(g.config.Seeds) > 0 {
		if _, err := mlist.Join(g.config.Seeds); err != nil {
			_ = mlist.Shutdown()
			return fmt.Errorf("membership: join cluster: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		_ = mlist.Shutdown()
		return err
	}

	g.memberlist = mlist
	g.stopCh = make(chan struct{})
	g.started.Store(true)

	g.wg.Add(1)
	go g.eventsListener(eventsCh)

	g.logger.Infof("member %s successfully joined the cluster", g.config.Name)
	return nil
}

// Stop leaves the cluster
func (g *Gossip) Stop(context.Context) error {
	if !g.started.CompareAndSwap(true, false) {
		return nil
	}

	err := errorschain.
		New(errorschain.ReturnFirst()).
		AddError(g.memberlist.Leave(g.config.LeaveTimeout)).
		AddError(g.memberlist.Shutdown()).
		Error()

	close(g.stopCh)
	g.wg.Wait()

	if err != nil {
		g.logger.Error(fmt.Errorf("member %s failed to leave the cluster: %w", g.config.Name, err))
		return err
	}
	g.logger.Infof("member %s successfully left the cluster", g.config.Name)
	return nil
}

// IsHostAlive implements Provider
func (g *Gossip) IsHostAlive(host string) bool {
	if host == g.config.Name {
		return true
	}
	g.mu.RLock()
	_, ok := g.members[host]
	g.mu.RUnlock()
	return ok
}

// OnHostStatusChanged implements Provider
func (g *Gossip) OnHostStatusChanged(listener func(Event)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, listener)
	g.mu.Unlock()
}

// Members implements Provider
func (g *Gossip) Members() []string {
	g.mu.RLock()
	members := make([]string, 0, len(g.members)+1)
	for host := range g.members {
		members = append(members, host)
	}
	g.mu.RUnlock()

	if !slices.Contains(members, g.config.Name) {
		members = append(members, g.config.Name)
	}
	slices.Sort(members)
	return members
}

func (g *Gossip) eventsListener(eventsCh chan memberlist.NodeEvent) {
	defer g.wg.Done()
	for {
		select {
		case <-g.stopCh:
			return
		case event := <-eventsCh:
			if event.Node == nil || event.Node.Name == g.config.Name {
				continue
			}

			var status Status
			switch event.Event {
			case memberlist.NodeJoin:
				status = Alive
			case memberlist.NodeLeave:
				status = Dead
			default:
				continue
			}
			g.apply(Event{Host: event.Node.Name, Status: status})
		}
	}
}

func (g *Gossip) apply(event Event) {
	g.mu.Lock()
	if event.Status == Alive {
		g.members[event.Host] = struct{}{}
	} else {
		delete(g.members, event.Host)
	}
	listeners := slices.Clone(g.listeners)
	g.mu.Unlock()

	g.logger.Debugf("member %s is %s", event.Host, event.Status)
	for _, listener := range listeners {
		listener(event)
	}
}
