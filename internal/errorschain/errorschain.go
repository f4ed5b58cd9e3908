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

package errorschain

import "go.uber.org/multierr"

// Chain collects errors in insertion order
type Chain struct {
	returnFirst bool
	errs        []error
}

// ChainOption configures a chain at creation time.
type ChainOption func(*Chain)

// New creates a new error chain
func New(opts ...ChainOption) *Chain {
	chain := &Chain{errs: make([]error, 0)}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddError adds an error to the chain. Nil errors are kept and ignored by Error.
func (c *Chain) AddError(err error) *Chain {
	c.errs = append(c.errs, err)
	return c
}

// AddErrorFn runs fn and adds its error. Once the chain holds an error and
// ReturnFirst is set, fn is skipped.
func (c *Chain) AddErrorFn(fn func() error) *Chain {
	if c.returnFirst && c.Error() != nil {
		return c
	}
	return c.AddError(fn())
}

// Error returns the first error or the combination of all errors
func (c *Chain) Error() error {
	var err error
	for _, v := range c.errs {
		if v == nil {
			continue
		}
		if c.returnFirst {
			return v
		}
		err = multierr.Append(err, v)
	}
	return err
}

// ReturnFirst makes Error return the first non-nil error.
func ReturnFirst() ChainOption {
	return func(c *Chain) { c.returnFirst = true }
}

// ReturnAll makes Error combine every non-nil error.
func ReturnAll() ChainOption {
	return func(c *Chain) { c.returnFirst = false }
}
