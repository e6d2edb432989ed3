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

// Publisher stages messages addressed to topics until the enclosing unit of
// work decides their fate: Commit delivers everything buffered since the
// last terminal call, Rollback discards it. Buffering is what gives
// all-or-nothing externally visible publication without a distributed
// transaction; a message delivered by an earlier Commit can not be
// retracted.
type Publisher interface {
	// Publish buffers a message for a topic. Subscribers are not invoked
	// until Commit.
	Publish(ctx context.Context, topic string, message any) error

	// Commit delivers every buffered message and clears the buffer.
	Commit(ctx context.Context) error

	// Rollback discards the buffer without invoking any subscriber.
	Rollback()
}

// Subscriber is a handler of messages delivered for a topic at commit time.
// Dependencies declared at subscription are resolved just before the call
// and passed as deps.
type Subscriber interface {
	// HandleMessage handles a message published to a topic.
	HandleMessage(ctx context.Context, topic string, message any, deps Deps) error
}

// SubscriberFunc is a function that can be used as a subscriber.
type SubscriberFunc func(ctx context.Context, topic string, message any, deps Deps) error

// HandleMessage implements the HandleMessage method of the Subscriber interface.
func (h SubscriberFunc) HandleMessage(ctx context.Context, topic string, message any, deps Deps) error {
	return h(ctx, topic, message, deps)
}
