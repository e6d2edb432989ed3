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

// Package mocks provides mocked implementations of the atombus interfaces,
// useful in testing.
package mocks

import (
	"context"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/uuid"
)

const (
	// CommandType is the type for Command.
	CommandType ab.CommandType = "Command"
	// CommandOtherType is the type for CommandOther.
	CommandOtherType ab.CommandType = "CommandOther"

	// EventType is the type for Event.
	EventType ab.EventType = "Event"
	// EventOtherType is the type for EventOther.
	EventOtherType ab.EventType = "EventOther"
)

// Command is a mocked atombus.Command, useful in testing.
type Command struct {
	Content string
}

// CommandType implements the CommandType method of the atombus.Command interface.
func (t Command) CommandType() ab.CommandType { return CommandType }

// CommandOther is a mocked atombus.Command, useful in testing.
type CommandOther struct {
	Content string
}

// CommandType implements the CommandType method of the atombus.Command interface.
func (t CommandOther) CommandType() ab.CommandType { return CommandOtherType }

// Event is a mocked atombus.Event, useful in testing.
type Event struct {
	Content string
}

// EventType implements the EventType method of the atombus.Event interface.
func (t Event) EventType() ab.EventType { return EventType }

// EventOther is a mocked atombus.Event, useful in testing.
type EventOther struct {
	Content string
}

// EventType implements the EventType method of the atombus.Event interface.
func (t EventOther) EventType() ab.EventType { return EventOtherType }

// CommandHandler is a mocked atombus.CommandHandler, useful in testing.
type CommandHandler struct {
	Commands []ab.Command
	Deps     ab.Deps
	Context  context.Context
	// Used to simulate errors in HandleCommand.
	Err error
}

// HandleCommand implements the HandleCommand method of the atombus.CommandHandler interface.
func (h *CommandHandler) HandleCommand(ctx context.Context, cmd ab.Command, deps ab.Deps) error {
	if h.Err != nil {
		return h.Err
	}
	h.Commands = append(h.Commands, cmd)
	h.Deps = deps
	h.Context = ctx
	return nil
}

// EventHandler is a mocked atombus.EventHandler, useful in testing.
type EventHandler struct {
	Events  []ab.Event
	Deps    ab.Deps
	Context context.Context
	// Used to simulate errors in HandleEvent.
	Err error
}

// HandleEvent implements the HandleEvent method of the atombus.EventHandler interface.
func (h *EventHandler) HandleEvent(ctx context.Context, event ab.Event, deps ab.Deps) error {
	if h.Err != nil {
		return h.Err
	}
	h.Events = append(h.Events, event)
	h.Deps = deps
	h.Context = ctx
	return nil
}

// Subscriber is a mocked atombus.Subscriber, useful in testing.
type Subscriber struct {
	Topics   []string
	Messages []any
	Deps     ab.Deps
	// Used to simulate errors in HandleMessage.
	Err error
}

// HandleMessage implements the HandleMessage method of the atombus.Subscriber interface.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, message any, deps ab.Deps) error {
	if s.Err != nil {
		return s.Err
	}
	s.Topics = append(s.Topics, topic)
	s.Messages = append(s.Messages, message)
	s.Deps = deps
	return nil
}

// Aggregate is a mocked atombus.Aggregate with a mutable content field,
// useful in testing.
type Aggregate struct {
	*ab.Root

	Content string
}

// NewAggregate returns a new Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{Root: ab.NewRoot(uuid.Nil)}
}

// Repo is a mocked atombus.Repository and atombus.Tracker, useful in testing.
type Repo struct {
	Tracked  []ab.Aggregate
	Stored   []ab.Aggregate
	Restored []ab.Aggregate
	// Used to simulate errors.
	TrackErr   error
	StoreErr   error
	RestoreErr error
}

// Track implements the Track method of the atombus.Tracker interface.
func (r *Repo) Track(ctx context.Context, aggregate ab.Aggregate) error {
	if r.TrackErr != nil {
		return r.TrackErr
	}
	r.Tracked = append(r.Tracked, aggregate)
	return nil
}

// Store implements the Store method of the atombus.Repository interface.
func (r *Repo) Store(ctx context.Context, aggregate ab.Aggregate) error {
	if r.StoreErr != nil {
		return r.StoreErr
	}
	r.Stored = append(r.Stored, aggregate)
	return nil
}

// Restore implements the Restore method of the atombus.Repository interface.
func (r *Repo) Restore(ctx context.Context, aggregate ab.Aggregate) error {
	if r.RestoreErr != nil {
		return r.RestoreErr
	}
	r.Restored = append(r.Restored, aggregate)
	return nil
}

// Publisher is a mocked atombus.Publisher, useful in testing.
type Publisher struct {
	Buffer     []PublishedMessage
	Committed  [][]PublishedMessage
	RolledBack int
	// Used to simulate errors in Commit.
	CommitErr error
}

// PublishedMessage is a topic and message pair recorded by the mocked Publisher.
type PublishedMessage struct {
	Topic   string
	Message any
}

// Publish implements the Publish method of the atombus.Publisher interface.
func (p *Publisher) Publish(ctx context.Context, topic string, message any) error {
	p.Buffer = append(p.Buffer, PublishedMessage{Topic: topic, Message: message})
	return nil
}

// Commit implements the Commit method of the atombus.Publisher interface.
func (p *Publisher) Commit(ctx context.Context) error {
	if p.CommitErr != nil {
		return p.CommitErr
	}
	p.Committed = append(p.Committed, p.Buffer)
	p.Buffer = nil
	return nil
}

// Rollback implements the Rollback method of the atombus.Publisher interface.
func (p *Publisher) Rollback() {
	p.Buffer = nil
	p.RolledBack++
}
