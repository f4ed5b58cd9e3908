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

package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/transport"
)

const (
	subjectPrefix = "silo.host."
	// DefaultConnectTimeout bounds the connection to the NATS server
	DefaultConnectTimeout = 5 * time.Second
)

// Config defines the NATS transport settings
type Config struct {
	// URL is the NATS server url
	URL string
	// Address is the host address announced in the directory
	Address string
	// Types lists the message and reply types exchanged between hosts
	Types []any
	// ConnectTimeout defaults to DefaultConnectTimeout
	ConnectTimeout time.Duration
	// Logger defaults to log.DefaultLogger
	Logger log.Logger
}

var _ validation.Validator = (*Config)(nil)

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("URL", c.URL)).
		AddValidator(validation.NewEmptyStringValidator("Address", c.Address)).
		Validate()
}

// Transport is a transport.Transport using NATS request/reply.
// Every host subscribes to a subject derived from its address.
type Transport struct {
	config *Config
	conn   *nats.Conn
	codec  *codec
	logger log.Logger

	mu      sync.Mutex
	sub     *nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	closed  atomic.Bool
}

var _ transport.Transport = (*Transport)(nil)

// New connects to the NATS server
func New(config *Config) (*Transport, error) {
	if config == nil {
		return nil, errors.New("transport/nats: config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}

	conn, err := nats.Connect(config.URL,
		nats.Name(config.Address),
		nats.Timeout(config.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("transport/nats: connect: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		config: config,
		conn:   conn,
		codec:  newCodec(config.Types...),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Address implements transport.Transport
func (t *Transport) Address() string {
	return t.config.Address
}

// Listen implements transport.Transport
func (t *Transport) Listen(handler transport.Handler) error {
	if t.closed.Load() {
		return gerrors.ErrTransportClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		return fmt.Errorf("transport/nats: %s is already listening", t.config.Address)
	}

	sub, err := t.conn.Subscribe(subject(t.config.Address), func(msg *nats.Msg) {
		t.workers.Add(1)
		go func() {
			defer t.workers.Done()
			t.handle(handler, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("transport/nats: subscribe: %w", err)
	}

	if err := t.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("transport/nats: flush: %w", err)
	}

	t.sub = sub
	return nil
}

// Send implements transport.Transport
func (t *Transport) Send(ctx context.Context, host string, envelope *transport.Envelope) (any, error) {
	if t.closed.Load() {
		return nil, gerrors.ErrTransportClosed
	}

	data, err := t.codec.encodeEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	msg, err := t.conn.RequestWithContext(ctx, subject(host), data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("%w: %s", gerrors.ErrHostUnreachable, host)
		}
		return nil, fmt.Errorf("transport/nats: request %s: %w", host, err)
	}

	return t.codec.decodeReply(msg.Data)
}

// Close implements transport.Transport. Close is idempotent.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Unsubscribe()
	}

	t.cancel()
	t.workers.Wait()
	t.conn.Close()
	return err
}

func (t *Transport) handle(handler transport.Handler, msg *nats.Msg) {
	var (
		value any
		err   error
	)

	envelope, decodeErr := t.codec.decodeEnvelope(msg.Data)
	if decodeErr != nil {
		err = gerrors.NewInternalError(decodeErr)
	} else {
		value, err = handler(t.ctx, envelope)
	}

	data, encodeErr := t.codec.encodeReply(value, err)
	if encodeErr != nil {
		t.logger.Errorf("failed to encode reply: %v", encodeErr)
		return
	}

	if respondErr := msg.Respond(data); respondErr != nil {
		t.logger.Warnf("failed to respond to %s: %v", msg.Subject, respondErr)
	}
}

// subject returns the subject a host listens on. NATS subject tokens cannot hold '.', ':' or spaces.
func subject(address string) string {
	return subjectPrefix + strings.NewReplacer(".", "_", ":", "_", " ", "_", "*", "_", ">", "_").Replace(address)
}
