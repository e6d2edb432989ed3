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
	"sync"
)

var (
	// ErrHandlerAlreadySet is when a handler is already registered for a command.
	ErrHandlerAlreadySet = errors.New("handler is already set")
	// ErrCommandNotRegistered is when no handler is registered for a command.
	ErrCommandNotRegistered = errors.New("command not registered")
	// ErrMissingHandler is when a nil handler is given.
	ErrMissingHandler = errors.New("missing handler")
	// ErrMissingMatcher is when a nil matcher is given.
	ErrMissingMatcher = errors.New("missing matcher")
)

// Bus routes commands to their single registered handler and events to all
// matching handlers, injecting resolved dependencies into every call.
//
// Events produced while handling (by handlers calling PublishEvent) go onto
// one FIFO queue shared by the whole cascade, so the global dispatch order is
// the order of production even when new events are enqueued mid-drain. The
// queue is owned by the outermost HandleCommand or PublishEvent call; nested
// calls only enqueue.
//
// Handler registries are safe for concurrent use, but dispatching itself is
// cooperative and single-owner: only one goroutine may drive a Bus at a time.
type Bus struct {
	resolver *Resolver

	commandHandlers map[CommandType]registration
	eventHandlers   []eventRegistration
	registryMu      sync.RWMutex

	// Cascade state, only touched by the dispatching goroutine.
	queue    []Event
	draining bool
}

type registration struct {
	handler CommandHandler
	deps    []string
}

type eventRegistration struct {
	match   EventMatcher
	handler EventHandler
	deps    []string
}

// NewBus creates a Bus with a fresh Resolver.
func NewBus() *Bus {
	return NewBusWithResolver(NewResolver())
}

// NewBusWithResolver creates a Bus that resolves handler dependencies with r,
// useful when a Publisher should share the same providers and overrides.
func NewBusWithResolver(r *Resolver) *Bus {
	if r == nil {
		r = NewResolver()
	}
	return &Bus{
		resolver:        r,
		commandHandlers: map[CommandType]registration{},
	}
}

// Resolver returns the dependency resolver used by the bus.
func (b *Bus) Resolver() *Resolver {
	return b.resolver
}

// SetHandler registers the handler for a command type, with the dependency
// keys to resolve on every call. A command type can have only one handler.
func (b *Bus) SetHandler(handler CommandHandler, cmdType CommandType, deps ...string) error {
	if handler == nil {
		return ErrMissingHandler
	}

	b.registryMu.Lock()
	defer b.registryMu.Unlock()

	if _, ok := b.commandHandlers[cmdType]; ok {
		return ErrHandlerAlreadySet
	}

	b.commandHandlers[cmdType] = registration{handler: handler, deps: deps}
	return nil
}

// AddHandler adds a handler for all events accepted by the matcher, with the
// dependency keys to resolve on every call. Handlers are invoked in the order
// they were added.
func (b *Bus) AddHandler(m EventMatcher, handler EventHandler, deps ...string) error {
	if m == nil {
		return ErrMissingMatcher
	}
	if handler == nil {
		return ErrMissingHandler
	}

	b.registryMu.Lock()
	defer b.registryMu.Unlock()

	b.eventHandlers = append(b.eventHandlers, eventRegistration{
		match:   m,
		handler: handler,
		deps:    deps,
	})
	return nil
}

// HandleCommand implements the HandleCommand method of the Dispatcher
// interface. It resolves the handler's dependencies, invokes the handler and
// then drains all events the handler published, including their cascades,
// before returning. A handler or resolution error propagates unmodified and
// discards any events still queued.
func (b *Bus) HandleCommand(ctx context.Context, cmd Command) error {
	b.registryMu.RLock()
	r, ok := b.commandHandlers[cmd.CommandType()]
	b.registryMu.RUnlock()

	if !ok {
		return ErrCommandNotRegistered
	}

	deps, err := b.resolver.Resolve(ctx, r.deps...)
	if err != nil {
		return err
	}

	// Nested dispatches feed the outermost call's queue.
	if b.draining {
		return r.handler.HandleCommand(ctx, cmd, deps)
	}

	b.draining = true
	defer func() {
		b.draining = false
		b.queue = nil
	}()

	if err := r.handler.HandleCommand(ctx, cmd, deps); err != nil {
		return err
	}

	return b.drain(ctx)
}

// PublishEvent implements the PublishEvent method of the Dispatcher
// interface. The event joins the cascade queue; when no drain is running
// this call drains the queue to completion. Zero matching handlers is a
// no-op. The first handler or resolution error aborts the drain, discards
// the remaining queue and propagates to the caller.
func (b *Bus) PublishEvent(ctx context.Context, event Event) error {
	b.queue = append(b.queue, event)

	if b.draining {
		return nil
	}

	b.draining = true
	defer func() {
		b.draining = false
		b.queue = nil
	}()

	return b.drain(ctx)
}

func (b *Bus) drain(ctx context.Context) error {
	for len(b.queue) > 0 {
		event := b.queue[0]
		b.queue = b.queue[1:]

		for _, r := range b.matching(event) {
			deps, err := b.resolver.Resolve(ctx, r.deps...)
			if err != nil {
				return err
			}

			if err := r.handler.HandleEvent(ctx, event, deps); err != nil {
				return err
			}
		}
	}

	return nil
}

// matching snapshots the handlers for an event so the registry lock is not
// held while handlers run.
func (b *Bus) matching(event Event) []eventRegistration {
	b.registryMu.RLock()
	defer b.registryMu.RUnlock()

	var rs []eventRegistration
	for _, r := range b.eventHandlers {
		if r.match(event) {
			rs = append(rs, r)
		}
	}
	return rs
}
