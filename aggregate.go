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

import "github.com/atombus/atombus/uuid"

// Aggregate is a consistency boundary entity that accumulates domain events
// on its Root. A domain specific aggregate embeds *Root to take care of the
// common methods.
//
// A typical aggregate example:
//
//	type Invitation struct {
//	    *atombus.Root
//
//	    Name     string
//	    Accepted bool
//	}
//
//	func NewInvitation(name string) *Invitation {
//	    return &Invitation{
//	        Root: atombus.NewRoot(uuid.Nil),
//	        Name: name,
//	    }
//	}
type Aggregate interface {
	// EntityID returns the ID of the aggregate.
	EntityID() uuid.UUID

	// Publish enqueues an event to be dispatched when the enclosing unit of
	// work next drains the aggregate.
	Publish(Event)

	// Pull returns the pending events in publish order and clears the queue.
	Pull() []Event
}

// Root is the event-accumulating base to embed in domain specific
// aggregates. Events are held in publish order until pulled; a pulled event
// is never returned again.
type Root struct {
	id      uuid.UUID
	pending []Event
}

// NewRoot creates a Root. A Nil ID is replaced with a new one.
func NewRoot(id uuid.UUID) *Root {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Root{id: id}
}

// EntityID implements the EntityID method of the Aggregate interface.
func (r *Root) EntityID() uuid.UUID {
	return r.id
}

// Publish implements the Publish method of the Aggregate interface.
func (r *Root) Publish(event Event) {
	r.pending = append(r.pending, event)
}

// Pull implements the Pull method of the Aggregate interface. Pulling twice
// without publishing in between yields an empty result the second time.
func (r *Root) Pull() []Event {
	events := r.pending
	r.pending = nil
	return events
}
