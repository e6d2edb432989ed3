// Copyright (c) 2025 - The Atombus authors.
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

package atombus

import (
	"context"
	"errors"
)

// ErrEntityNotFound is when an entity could not be found.
var ErrEntityNotFound = errors.New("could not find entity")

// ErrCouldNotSaveEntity is when an entity could not be saved.
var ErrCouldNotSaveEntity = errors.New("could not save entity")

// RepoError is an error in a repository.
type RepoError struct {
	// Err is the error.
	Err error
	// BaseErr is an optional underlying error, for example from the DB driver.
	BaseErr error
}

// Error implements the Error method of the error interface.
func (e *RepoError) Error() string {
	str := "repo: "
	if e.Err != nil {
		str += e.Err.Error()
	}
	if e.BaseErr != nil {
		str += ": " + e.BaseErr.Error()
	}
	return str
}

// Unwrap implements the errors.Unwrap interface.
func (e *RepoError) Unwrap() error {
	return e.Err
}

// Repository persists and reverts aggregates. Failures propagate to the
// Session's caller as-is; the Session never retries them.
type Repository interface {
	// Store persists the current state of the aggregate.
	Store(ctx context.Context, aggregate Aggregate) error

	// Restore reverts the aggregate's in-memory state to its last known
	// state, discarding uncommitted mutations.
	Restore(ctx context.Context, aggregate Aggregate) error
}

// Tracker is an optional Repository capability: a lifecycle hook called by
// Session.Add when an aggregate joins the unit of work, before any command
// runs against it. Snapshotting repositories use it to capture the state
// that Restore reverts to.
type Tracker interface {
	// Track records the aggregate's pre-scope state.
	Track(ctx context.Context, aggregate Aggregate) error
}
