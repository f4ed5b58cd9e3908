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
	"errors"

	gerrors "github.com/tochemey/silo/errors"
)

// retryable signals used between the dispatch path and the activations.
// They never reach the callers of the host.
var (
	// errDeactivating is returned by submit when the activation no longer accepts work
	errDeactivating = errors.New("activation is deactivating")
	// errRetryLookup is returned when the directory location turned out to be stale
	errRetryLookup = errors.New("retry via fresh lookup")
	// errDuplicate fails the queued work of an activation that lost its registration race
	errDuplicate = errors.New("activation lost the registration race")
)

// isRetryable reports whether err asks the sender to resolve the identity again
func isRetryable(err error) bool {
	return errors.Is(err, errDeactivating) || errors.Is(err, errRetryLookup) || errors.Is(err, errDuplicate)
}

// newErrLostRace fails the work queued on an activation that lost its registration race.
// Callers see ErrNonExistentActivation while the dispatch path retries without consuming a forward.
func newErrLostRace(target string) error {
	return errors.Join(gerrors.NewErrNonExistentActivation(target), errDuplicate)
}
