// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminal matches every *TerminalError.
	ErrTerminal = errors.New("activity failed terminally")

	// ErrInvalidPolicy is returned when a Policy cannot be executed.
	ErrInvalidPolicy = errors.New("invalid retry policy")
)

// Class classifies why an activity stopped being retried.
type Class string

const (
	ClassRetriesExhausted Class = "retries-exhausted"
	ClassNonRetryable     Class = "non-retryable"
	ClassTimeout          Class = "timeout"
	ClassCanceled         Class = "canceled"
)

// TerminalError is returned when an activity will not be attempted again.
type TerminalError struct {
	Operation string
	Attempts  int
	Class     Class
	Err       error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", e.Operation, e.Class, e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrTerminal.
func (e *TerminalError) Is(target error) bool {
	return target == ErrTerminal
}

// ClassOf returns the classification of a terminal error, or "" when err is
// not terminal.
func ClassOf(err error) Class {
	var terminal *TerminalError
	if errors.As(err, &terminal) {
		return terminal.Class
	}
	return ""
}

type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks err so that the invoker stops retrying immediately.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err was marked with NonRetryable.
func IsNonRetryable(err error) bool {
	var target *nonRetryableError
	return errors.As(err, &target)
}

type acceptableEmptyError struct {
	err error
}

func (e *acceptableEmptyError) Error() string { return e.err.Error() }
func (e *acceptableEmptyError) Unwrap() error { return e.err }

// AcceptableEmpty marks err as a declared absence of data. The invoker
// returns it without retrying and callers treat the result as empty.
func AcceptableEmpty(err error) error {
	if err == nil {
		return nil
	}
	return &acceptableEmptyError{err: err}
}

// IsAcceptableEmpty reports whether err was marked with AcceptableEmpty.
func IsAcceptableEmpty(err error) bool {
	var target *acceptableEmptyError
	return errors.As(err, &target)
}
