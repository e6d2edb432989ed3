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

package local

import (
	"context"
	"errors"
	"sync"

	ab "github.com/atombus/atombus"
)

var _ = ab.Publisher(&Publisher{})

// Publisher is a staged topic publisher: Publish buffers messages, Commit
// delivers them to all matching subscribers and Rollback discards them.
// Delivery order is the insertion order of the whole buffer, not grouped by
// topic; subscribers for one message run in subscription order. Subscriber
// dependencies are resolved at delivery time, so overrides set between
// Publish and Commit apply.
type Publisher struct {
	resolver *ab.Resolver

	subscribers   []subscription
	subscribersMu sync.RWMutex

	// Buffer of staged messages, owned by the goroutine driving the
	// current unit of work.
	buffer []entry
}

type subscription struct {
	match      ab.TopicMatcher
	subscriber ab.Subscriber
	deps       []string
}

type entry struct {
	topic   string
	message any
}

// Option is an option setter used to configure creation.
type Option func(*Publisher) error

// WithResolver uses the given resolver for subscriber dependencies instead
// of a fresh one, typically to share overrides with a Bus.
func WithResolver(r *ab.Resolver) Option {
	return func(p *Publisher) error {
		if r == nil {
			return errors.New("missing resolver")
		}
		p.resolver = r
		return nil
	}
}

// NewPublisher creates a Publisher, with optional settings.
func NewPublisher(options ...Option) (*Publisher, error) {
	p := &Publisher{}

	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(p); err != nil {
			return nil, err
		}
	}

	if p.resolver == nil {
		p.resolver = ab.NewResolver()
	}

	return p, nil
}

// Resolver returns the dependency resolver used for subscribers.
func (p *Publisher) Resolver() *ab.Resolver {
	return p.resolver
}

// AddSubscriber adds a subscriber for all topics accepted by the matcher,
// with the dependency keys to resolve on every delivery.
func (p *Publisher) AddSubscriber(m ab.TopicMatcher, subscriber ab.Subscriber, deps ...string) error {
	if m == nil {
		return ab.ErrMissingMatcher
	}
	if subscriber == nil {
		return ab.ErrMissingHandler
	}

	p.subscribersMu.Lock()
	defer p.subscribersMu.Unlock()

	p.subscribers = append(p.subscribers, subscription{
		match:      m,
		subscriber: subscriber,
		deps:       deps,
	})
	return nil
}

// Publish implements the Publish method of the atombus.Publisher interface.
func (p *Publisher) Publish(ctx context.Context, topic string, message any) error {
	p.buffer = append(p.buffer, entry{topic: topic, message: message})
	return nil
}

// Commit implements the Commit method of the atombus.Publisher interface.
// The first subscriber or resolution error aborts delivery; the buffer is
// cleared in full either way, so a retried Commit never redelivers.
func (p *Publisher) Commit(ctx context.Context) error {
	buffer := p.buffer
	p.buffer = nil

	for _, e := range buffer {
		for _, s := range p.matching(e.topic) {
			deps, err := p.resolver.Resolve(ctx, s.deps...)
			if err != nil {
				return err
			}

			if err := s.subscriber.HandleMessage(ctx, e.topic, e.message, deps); err != nil {
				return err
			}
		}
	}

	return nil
}

// Rollback implements the Rollback method of the atombus.Publisher interface.
func (p *Publisher) Rollback() {
	p.buffer = nil
}

// matching snapshots the subscribers for a topic so the lock is not held
// while subscribers run.
func (p *Publisher) matching(topic string) []subscription {
	p.subscribersMu.RLock()
	defer p.subscribersMu.RUnlock()

	var ss []subscription
	for _, s := range p.subscribers {
		if s.match(topic) {
			ss = append(ss, s)
		}
	}
	return ss
}
