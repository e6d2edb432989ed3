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

import "context"

// Event is a notification of something that has happened in the domain.
//
// An event name should 1) be in past tense and 2) contain the intent
// (CustomerMoved vs CustomerAddressCorrected).
//
// The event should contain all the data needed when handling it. An event
// type can have zero or more handlers.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType
}

// EventType is the type of an event, used as its unique identifier.
type EventType string

// String implements the fmt.Stringer interface.
func (et EventType) String() string {
	return string(et)
}

// EventHandler is a handler of events. Dependencies declared at registration
// are resolved just before the call and passed as deps.
type EventHandler interface {
	// HandleEvent handles an event.
	HandleEvent(ctx context.Context, event Event, deps Deps) error
}

// EventHandlerFunc is a function that can be used as an event handler.
type EventHandlerFunc func(ctx context.Context, event Event, deps Deps) error

// HandleEvent implements the HandleEvent method of the EventHandler interface.
func (h EventHandlerFunc) HandleEvent(ctx context.Context, event Event, deps Deps) error {
	return h(ctx, event, deps)
}
