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

package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	cause := errors.New("something went wrong")

	turnFault := NewTurnFault(cause)
	require.EqualError(t, turnFault, "turn fault: something went wrong")
	assert.ErrorIs(t, turnFault, cause)

	panicErr := NewPanicError(cause)
	require.EqualError(t, panicErr, "panic: something went wrong")
	assert.ErrorIs(t, panicErr.Unwrap(), cause)

	activationErr := NewErrActivationFailure(cause)
	assert.ErrorIs(t, activationErr, ErrActivationFailure)
	assert.ErrorIs(t, activationErr, cause)

	deactivationErr := NewErrDeactivationFailure(cause)
	assert.ErrorIs(t, deactivationErr, ErrDeactivationFailure)
	assert.ErrorIs(t, deactivationErr, cause)

	nonExistent := NewErrNonExistentActivation("account/1")
	assert.ErrorIs(t, nonExistent, ErrNonExistentActivation)
	assert.Contains(t, nonExistent.Error(), "target=account/1")

	exhausted := NewErrForwardingExhausted("account/1", 2)
	assert.ErrorIs(t, exhausted, ErrNonExistentActivation)
	assert.ErrorIs(t, exhausted, ErrForwardingExhausted)
	assert.Contains(t, exhausted.Error(), "forwards=2")

	assert.ErrorIs(t, NewErrInvalidIdentity(cause), ErrInvalidIdentity)
	assert.ErrorIs(t, NewErrKindNotRegistered("account"), ErrKindNotRegistered)

	ageErr := NewErrInvalidAgeLimit("account", time.Second, 2*time.Minute)
	assert.ErrorIs(t, ageErr, ErrInvalidAgeLimit)
	assert.Contains(t, ageErr.Error(), "kind=account")

	internalErr := NewInternalError(cause)
	require.EqualError(t, internalErr, "internal error: something went wrong")
	assert.ErrorIs(t, internalErr, cause)
	assert.ErrorIs(t, internalErr.Unwrap(), cause)
}

func TestTurnFaultKeepsTheChain(t *testing.T) {
	fatal := NewTurnFault(errors.Join(ErrFatalTurn, errors.New("corrupted")))

	var fault *TurnFault
	require.ErrorAs(t, error(fatal), &fault)
	assert.ErrorIs(t, fault, ErrFatalTurn)
	assert.NotErrorIs(t, fault, ErrNonExistentActivation)
}
