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

package types

import (
	"reflect"
	"strings"
	"sync"
)

// Registry maps wire names to Go types so that decoders can rebuild concrete
// message values. Names are the lowercased reflect type string, "pkg.type".
type Registry interface {
	// Register adds the type of v. Pointers register their element type.
	Register(v any)
	// Deregister removes the type of v
	Deregister(v any)
	// Exists returns true when the type of v is registered
	Exists(v any) bool
	// TypeOf returns the type registered under name
	TypeOf(name string) (reflect.Type, bool)
	// Len returns the number of registered types
	Len() int
}

type registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

var _ Registry = (*registry)(nil)

// NewRegistry creates a new types registry
func NewRegistry() Registry {
	return &registry{types: make(map[string]reflect.Type)}
}

// Register implements Registry
func (r *registry) Register(v any) {
	rtype := elemType(v)
	if rtype == nil {
		return
	}
	r.mu.Lock()
	r.types[nameOf(rtype)] = rtype
	r.mu.Unlock()
}

// Deregister implements Registry
func (r *registry) Deregister(v any) {
	rtype := elemType(v)
	if rtype == nil {
		return
	}
	r.mu.Lock()
	delete(r.types, nameOf(rtype))
	r.mu.Unlock()
}

// Exists implements Registry
func (r *registry) Exists(v any) bool {
	rtype := elemType(v)
	if rtype == nil {
		return false
	}
	_, ok := r.TypeOf(nameOf(rtype))
	return ok
}

// TypeOf implements Registry
func (r *registry) TypeOf(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.types[lowTrim(name)]
	return out, ok
}

// Len implements Registry
func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Name returns the wire name of v and whether v is a pointer
func Name(v any) (string, bool) {
	rtype := reflect.TypeOf(v)
	if rtype == nil {
		return "", false
	}
	if rtype.Kind() == reflect.Ptr {
		return nameOf(rtype.Elem()), true
	}
	return nameOf(rtype), false
}

func elemType(v any) reflect.Type {
	switch x := v.(type) {
	case nil:
		return nil
	case reflect.Type:
		return x
	default:
		rtype := reflect.TypeOf(v)
		if rtype.Kind() == reflect.Ptr {
			return rtype.Elem()
		}
		return rtype
	}
}

func nameOf(rtype reflect.Type) string {
	return lowTrim(rtype.String())
}

// lowTrim trim any space and lower the string value
func lowTrim(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
