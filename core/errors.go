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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyItemID indicates the ID field is empty.
	ErrEmptyItemID = errors.New("item ID cannot be empty")

	// ErrInvalidWindow indicates a RunWindow violates Since <= TriggeredAt.
	ErrInvalidWindow = errors.New("invalid run window")

	// ErrMismatchedBatch indicates a transform output does not correspond
	// one-to-one with its input chunk.
	ErrMismatchedBatch = errors.New("embedding batch does not match chunk")

	// ErrInvalidTransition indicates a run state change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid run state transition")

	// ErrNegativeLength indicates a corrupt length prefix in serialized data.
	ErrNegativeLength = errors.New("negative length")
)
