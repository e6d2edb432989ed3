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
	"fmt"

	"github.com/atombus/atombus/uuid"
)

const (
	// AggregateAddedEvent is dispatched when an aggregate joins a session.
	AggregateAddedEvent EventType = "aggregate_added"
	// AggregateCommittedEvent is dispatched per aggregate after a session commits.
	AggregateCommittedEvent EventType = "aggregate_committed"
	// AggregateRolledBackEvent is dispatched per aggregate after a session rolls back.
	AggregateRolledBackEvent EventType = "aggregate_rolled_back"
)

// AggregateAdded carries an aggregate newly tracked by a session. Handlers
// typically hydrate derived fields before any command touches it.
type AggregateAdded struct {
	Aggregate Aggregate
}

// EventType implements the EventType method of the Event interface.
func (AggregateAdded) EventType() EventType { return AggregateAddedEvent }

// AggregateCommitted carries an aggregate whose session reached COMMITTED.
type AggregateCommitted struct {
	Aggregate Aggregate
}

// EventType implements the EventType method of the Event interface.
func (AggregateCommitted) EventType() EventType { return AggregateCommittedEvent }

// AggregateRolledBack carries an aggregate whose session reached ROLLED_BACK.
type AggregateRolledBack struct {
	Aggregate Aggregate
}

// EventType implements the EventType method of the Event interface.
func (AggregateRolledBack) EventType() EventType { return AggregateRolledBackEvent }

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	// SessionActive is the initial state, accepting aggregates and commands.
	SessionActive SessionState = iota
	// SessionCommitted is the terminal state after a successful Commit.
	SessionCommitted
	// SessionRolledBack is the terminal state after Rollback.
	SessionRolledBack
)

// String implements the fmt.Stringer interface.
func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "ACTIVE"
	case SessionCommitted:
		return "COMMITTED"
	case SessionRolledBack:
		return "ROLLED_BACK"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// ErrSessionEnded is when a command is executed on a terminal session.
var ErrSessionEnded = errors.New("session has ended")

// Session is a unit of work over one or more aggregates. Commands executed
// through it either fully commit (aggregates stored, staged messages
// published, AggregateCommitted dispatched) or fully roll back (aggregate
// state restored, staged messages discarded, AggregateRolledBack
// dispatched).
//
// Rollback is best effort by design: it cannot retract events that were
// already dispatched or messages an earlier commit already delivered.
//
// A Session is single use per transactional scope; Add on a terminal
// session starts a fresh scope.
type Session struct {
	dispatcher Dispatcher
	publisher  Publisher
	repo       Repository

	aggregates map[uuid.UUID]Aggregate
	order      []uuid.UUID
	state      SessionState
}

// SessionOption is an option setter used to configure creation.
type SessionOption func(*Session)

// WithPublisher attaches the staged publisher whose buffer follows the
// session's commit/rollback.
func WithPublisher(p Publisher) SessionOption {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithRepository attaches the repository used to store and restore tracked
// aggregates. Without it the session tracks aggregates without persistence.
func WithRepository(r Repository) SessionOption {
	return func(s *Session) {
		s.repo = r
	}
}

// NewSession creates an ACTIVE Session dispatching through d.
func NewSession(d Dispatcher, options ...SessionOption) *Session {
	s := &Session{
		dispatcher: d,
		aggregates: map[uuid.UUID]Aggregate{},
	}

	for _, option := range options {
		if option == nil {
			continue
		}
		option(s)
	}

	if s.repo == nil {
		s.repo = nullRepository{}
	}

	return s
}

// State returns the lifecycle state of the session.
func (s *Session) State() SessionState {
	return s.state
}

// Add tracks an aggregate in the unit of work and dispatches
// AggregateAdded, draining any events its handlers produce before
// returning. Aggregates are identity keyed; re-adding a tracked ID is a
// no-op. Add on a terminal session begins a fresh ACTIVE scope, it never
// merges with the ended one.
func (s *Session) Add(ctx context.Context, aggregate Aggregate) error {
	if s.state != SessionActive {
		s.state = SessionActive
		s.aggregates = map[uuid.UUID]Aggregate{}
		s.order = nil
	}

	id := aggregate.EntityID()
	if _, ok := s.aggregates[id]; ok {
		return nil
	}

	if t, ok := s.repo.(Tracker); ok {
		if err := t.Track(ctx, aggregate); err != nil {
			return fmt.Errorf("could not track aggregate: %w", err)
		}
	}

	s.aggregates[id] = aggregate
	s.order = append(s.order, id)

	return s.dispatcher.PublishEvent(ctx, AggregateAdded{Aggregate: aggregate})
}

// Execute forwards the command to the dispatcher, then drains every tracked
// aggregate's pending events, in add order, until no aggregate has events
// left. Errors propagate unmodified; the caller (or the enclosing Do scope)
// decides whether to roll back.
func (s *Session) Execute(ctx context.Context, cmd Command) error {
	if s.state != SessionActive {
		return ErrSessionEnded
	}

	if err := s.dispatcher.HandleCommand(ctx, cmd); err != nil {
		return err
	}

	return s.drainAggregates(ctx)
}

// drainAggregates dispatches aggregate events until a full pass over all
// tracked aggregates finds their queues empty. Event handlers may publish
// onto a root mid-pass, which the next pass picks up.
func (s *Session) drainAggregates(ctx context.Context) error {
	for {
		var pending []Event
		for _, id := range s.order {
			pending = append(pending, s.aggregates[id].Pull()...)
		}
		if len(pending) == 0 {
			return nil
		}

		for _, event := range pending {
			if err := s.dispatcher.PublishEvent(ctx, event); err != nil {
				return err
			}
		}
	}
}

// Commit stores every tracked aggregate, flushes the staged publisher and
// dispatches AggregateCommitted per aggregate, then clears tracking and
// transitions to COMMITTED. On error the session stays ACTIVE with its
// aggregates still tracked, so the caller can roll back.
func (s *Session) Commit(ctx context.Context) error {
	if s.state != SessionActive {
		return ErrSessionEnded
	}

	for _, id := range s.order {
		if err := s.repo.Store(ctx, s.aggregates[id]); err != nil {
			return fmt.Errorf("could not store aggregate: %w", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Commit(ctx); err != nil {
			return err
		}
	}

	committed := s.tracked()
	s.end(SessionCommitted)

	for _, aggregate := range committed {
		if err := s.dispatcher.PublishEvent(ctx, AggregateCommitted{Aggregate: aggregate}); err != nil {
			return err
		}
	}

	return nil
}

// Rollback reverts every tracked aggregate via Restore (discarding its
// pending events first), discards the staged publisher buffer and
// dispatches AggregateRolledBack per aggregate, then transitions to
// ROLLED_BACK. A Restore failure is fatal: the remaining aggregates are
// skipped and the error surfaces, but the publisher buffer is still
// discarded and the session still terminates.
func (s *Session) Rollback(ctx context.Context) error {
	if s.state != SessionActive {
		return ErrSessionEnded
	}

	var restoreErr error
	for _, id := range s.order {
		aggregate := s.aggregates[id]
		aggregate.Pull() // Uncommitted events are discarded, not dispatched.

		if err := s.repo.Restore(ctx, aggregate); err != nil {
			restoreErr = fmt.Errorf("could not restore aggregate: %w", err)
			break
		}
	}

	if s.publisher != nil {
		s.publisher.Rollback()
	}

	rolledBack := s.tracked()
	s.end(SessionRolledBack)

	if restoreErr != nil {
		return restoreErr
	}

	for _, aggregate := range rolledBack {
		if err := s.dispatcher.PublishEvent(ctx, AggregateRolledBack{Aggregate: aggregate}); err != nil {
			return err
		}
	}

	return nil
}

// Do runs fn inside the session as a scoped resource: a nil error commits,
// an error or panic rolls back before propagating. The scope always reaches
// a terminal state.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Rollback(ctx) //nolint:errcheck // The panic takes precedence.
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	// A failed commit leaves the session ACTIVE, so the scope still has to
	// roll back to reach a terminal state.
	if err := s.Commit(ctx); err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return nil
}

func (s *Session) tracked() []Aggregate {
	aggregates := make([]Aggregate, 0, len(s.order))
	for _, id := range s.order {
		aggregates = append(aggregates, s.aggregates[id])
	}
	return aggregates
}

func (s *Session) end(state SessionState) {
	s.state = state
	s.aggregates = map[uuid.UUID]Aggregate{}
	s.order = nil
}

// nullRepository tracks nothing and restores nothing, for sessions that run
// with a dispatcher only.
type nullRepository struct{}

func (nullRepository) Store(context.Context, Aggregate) error   { return nil }
func (nullRepository) Restore(context.Context, Aggregate) error { return nil }
