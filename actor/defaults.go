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

import "time"

const (
	// DefaultCollectionQuantum defines the default interval between two collection ticks
	DefaultCollectionQuantum = time.Minute
	// DefaultAgeLimit defines the default idle duration after which an activation is collected
	DefaultAgeLimit = 2 * time.Hour
	// DefaultMaxForwardCount defines the default number of forwards of a message that missed its activation
	DefaultMaxForwardCount = 2
	// DefaultActivationTimeout defines the default time budget of an activation
	DefaultActivationTimeout = 5 * time.Second
	// DefaultDeactivationTimeout defines the default time budget of a deactivation
	DefaultDeactivationTimeout = 5 * time.Second
	// DefaultActivationRetries defines the default number of OnActivate attempts
	DefaultActivationRetries = 3
)
