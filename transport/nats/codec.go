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
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/tochemey/silo/internal/types"
	"github.com/tochemey/silo/transport"
)

// compressionThreshold is the frame size from which bodies are zstd compressed
const compressionThreshold = 1024

const (
	flagRaw byte = iota
	flagZstd
)

var (
	// ErrTypeNotRegistered is returned when a message type was not registered with the codec
	ErrTypeNotRegistered = errors.New("transport/nats: message type not registered")
	// ErrInvalidFrame is returned when a frame cannot be decoded
	ErrInvalidFrame = errors.New("transport/nats: malformed frame")

	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// payload is a message value tagged with its registered type name
type payload struct {
	Type    string          `cbor:"1,keyasint"`
	Pointer bool            `cbor:"2,keyasint,omitempty"`
	Data    cbor.RawMessage `cbor:"3,keyasint"`
}

type request struct {
	Kind         string   `cbor:"1,keyasint"`
	Key          string   `cbor:"2,keyasint"`
	ActivationID string   `cbor:"3,keyasint,omitempty"`
	Sender       string   `cbor:"4,keyasint,omitempty"`
	ForwardCount int      `cbor:"5,keyasint,omitempty"`
	Message      *payload `cbor:"6,keyasint,omitempty"`
}

type reply struct {
	Code    transport.Code `cbor:"1,keyasint,omitempty"`
	Error   string         `cbor:"2,keyasint,omitempty"`
	Message *payload       `cbor:"3,keyasint,omitempty"`
}

// codec encodes envelopes and replies. Message values must be registered by type.
type codec struct {
	registry types.Registry
	encMode  cbor.EncMode
	decMode  cbor.DecMode
}

func newCodec(values ...any) *codec {
	encMode, _ := cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}.EncMode()
	decMode, _ := cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
	}.DecMode()

	registry := types.NewRegistry()
	for _, value := range values {
		registry.Register(value)
	}

	return &codec{registry: registry, encMode: encMode, decMode: decMode}
}

func (c *codec) encodeEnvelope(envelope *transport.Envelope) ([]byte, error) {
	message, err := c.encodeMessage(envelope.Message)
	if err != nil {
		return nil, err
	}

	return c.frame(&request{
		Kind:         envelope.Kind,
		Key:          envelope.Key,
		ActivationID: envelope.ActivationID,
		Sender:       envelope.Sender,
		ForwardCount: envelope.ForwardCount,
		Message:      message,
	})
}

func (c *codec) decodeEnvelope(data []byte) (*transport.Envelope, error) {
	req := new(request)
	if err := c.unframe(data, req); err != nil {
		return nil, err
	}

	message, err := c.decodeMessage(req.Message)
	if err != nil {
		return nil, err
	}

	return &transport.Envelope{
		Kind:         req.Kind,
		Key:          req.Key,
		ActivationID: req.ActivationID,
		Sender:       req.Sender,
		ForwardCount: req.ForwardCount,
		Message:      message,
	}, nil
}

func (c *codec) encodeReply(value any, replyErr error) ([]byte, error) {
	if replyErr != nil {
		return c.frame(&reply{Code: transport.CodeOf(replyErr), Error: replyErr.Error()})
	}

	message, err := c.encodeMessage(value)
	if err != nil {
		return c.frame(&reply{Code: transport.CodeInternal, Error: err.Error()})
	}
	return c.frame(&reply{Message: message})
}

func (c *codec) decodeReply(data []byte) (any, error) {
	rep := new(reply)
	if err := c.unframe(data, rep); err != nil {
		return nil, err
	}

	if rep.Code != transport.CodeNone {
		return nil, transport.ErrorOf(rep.Code, rep.Error)
	}
	return c.decodeMessage(rep.Message)
}

func (c *codec) encodeMessage(value any) (*payload, error) {
	if value == nil {
		return nil, nil
	}

	name, pointer := types.Name(value)
	if _, ok := c.registry.TypeOf(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}

	data, err := c.encMode.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("transport/nats: encode %s: %w", name, err)
	}
	return &payload{Type: name, Pointer: pointer, Data: data}, nil
}

func (c *codec) decodeMessage(p *payload) (any, error) {
	if p == nil {
		return nil, nil
	}

	rtype, ok := c.registry.TypeOf(p.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, p.Type)
	}

	ptr := reflect.New(rtype)
	if err := c.decMode.Unmarshal(p.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("transport/nats: decode %s: %w", p.Type, err)
	}

	if p.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

// frame prefixes the CBOR body with a flag byte telling whether it is compressed
func (c *codec) frame(v any) ([]byte, error) {
	body, err := c.encMode.Marshal(v)
	if err != nil {
		return nil, err
	}

	if len(body) < compressionThreshold {
		return append([]byte{flagRaw}, body...), nil
	}

	out := make([]byte, 1, len(body)/2)
	out[0] = flagZstd
	return encoder.EncodeAll(body, out), nil
}

func (c *codec) unframe(data []byte, v any) error {
	if len(data) < 1 {
		return ErrInvalidFrame
	}

	body := data[1:]
	switch data[0] {
	case flagRaw:
	case flagZstd:
		var err error
		body, err = decoder.DecodeAll(body, nil)
		if err != nil {
			return errors.Join(ErrInvalidFrame, err)
		}
	default:
		return ErrInvalidFrame
	}

	if err := c.decMode.Unmarshal(body, v); err != nil {
		return errors.Join(ErrInvalidFrame, err)
	}
	return nil
}
