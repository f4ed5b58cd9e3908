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

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type booleanValidator struct {
	check   bool
	message string
}

// NewBooleanValidator returns a validator that fails with message when check is false
func NewBooleanValidator(check bool, message string) Validator {
	return booleanValidator{check: check, message: message}
}

func (v booleanValidator) Validate() error {
	if !v.check {
		return errors.New(v.message)
	}
	return nil
}

type emptyStringValidator struct {
	field string
	value string
}

// NewEmptyStringValidator fails when value is blank
func NewEmptyStringValidator(field, value string) Validator {
	return emptyStringValidator{field: field, value: value}
}

func (v emptyStringValidator) Validate() error {
	if strings.TrimSpace(v.value) == "" {
		return fmt.Errorf("the [%s] is required", v.field)
	}
	return nil
}

type durationValidator struct {
	field     string
	value     time.Duration
	allowZero bool
}

// NewPositiveDurationValidator fails when value is not strictly positive
func NewPositiveDurationValidator(field string, value time.Duration) Validator {
	return durationValidator{field: field, value: value}
}

// NewNonNegativeDurationValidator fails when value is negative
func NewNonNegativeDurationValidator(field string, value time.Duration) Validator {
	return durationValidator{field: field, value: value, allowZero: true}
}

func (v durationValidator) Validate() error {
	if v.value < 0 || (v.value == 0 && !v.allowZero) {
		return fmt.Errorf("the [%s] duration %s is invalid", v.field, v.value)
	}
	return nil
}

type patternValidator struct {
	field   string
	pattern *regexp.Regexp
	value   string
}

// NewPatternValidator fails when value does not match pattern
func NewPatternValidator(field string, pattern *regexp.Regexp, value string) Validator {
	return patternValidator{field: field, pattern: pattern, value: value}
}

func (v patternValidator) Validate() error {
	if !v.pattern.MatchString(v.value) {
		return fmt.Errorf("the [%s] value %q must match %s", v.field, v.value, v.pattern.String())
	}
	return nil
}
