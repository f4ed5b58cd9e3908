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

package natskv

import (
	"time"

	"github.com/tochemey/silo/internal/validation"
)

const (
	// DefaultBucket is the JetStream key-value bucket holding the directory
	DefaultBucket = "silo_directory"
	// DefaultConnectTimeout bounds the connection to the NATS server
	DefaultConnectTimeout = 5 * time.Second
	// maxCASAttempts bounds the optimistic update loops
	maxCASAttempts = 16
)

// Config defines the NATS key-value directory settings
type Config struct {
	// URL is the NATS server url
	URL string
	// Bucket is the key-value bucket name. Defaults to DefaultBucket.
	Bucket string
	// ConnectTimeout defaults to DefaultConnectTimeout
	ConnectTimeout time.Duration
}

var _ validation.Validator = (*Config)(nil)

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("URL", c.URL)).
		AddValidator(validation.NewEmptyStringValidator("Bucket", c.Bucket)).
		AddValidator(validation.NewPositiveDurationValidator("ConnectTimeout", c.ConnectTimeout)).
		Validate()
}

func (c *Config) sanitize() {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}
