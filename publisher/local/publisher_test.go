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
	"reflect"
	"testing"

	"github.com/kr/pretty"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/mocks"
)

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}
	if p.Resolver() == nil {
		t.Error("there should be a resolver")
	}

	if _, err := NewPublisher(WithResolver(nil)); err == nil {
		t.Error("there should be a missing resolver error")
	}

	r := ab.NewResolver()
	p, err = NewPublisher(WithResolver(r))
	if err != nil {
		t.Fatal("there should be no error:", err)
	}
	if p.Resolver() != r {
		t.Error("the resolver should be the given one")
	}
}

func TestPublisher_AddSubscriber(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	if err := p.AddSubscriber(nil, &mocks.Subscriber{}); !errors.Is(err, ab.ErrMissingMatcher) {
		t.Error("there should be a missing matcher error:", err)
	}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), nil); !errors.Is(err, ab.ErrMissingHandler) {
		t.Error("there should be a missing handler error:", err)
	}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), &mocks.Subscriber{}); err != nil {
		t.Error("there should be no error:", err)
	}
}

// TestPublisher_StagedDelivery walks the staged lifecycle: a published then
// rolled back message never reaches subscribers, while the next batch is
// delivered in insertion order on Commit.
func TestPublisher_StagedDelivery(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	subscriber := &mocks.Subscriber{}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), subscriber); err != nil {
		t.Fatal("there should be no error:", err)
	}

	ctx := context.Background()

	if err := p.Publish(ctx, "topic-1", "discarded"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	p.Rollback()

	if err := p.Publish(ctx, "topic-1", "Hello"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Publish(ctx, "topic-2", "World"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Publish(ctx, "topic-1", "!"); err != nil {
		t.Fatal("there should be no error:", err)
	}

	// Nothing is delivered before Commit.
	if len(subscriber.Messages) != 0 {
		t.Error("there should be no messages yet:", subscriber.Messages)
	}

	if err := p.Commit(ctx); err != nil {
		t.Error("there should be no error:", err)
	}

	expectedTopics := []string{"topic-1", "topic-2", "topic-1"}
	if !reflect.DeepEqual(subscriber.Topics, expectedTopics) {
		t.Error("the topics should be correct:")
		t.Log(pretty.Diff(subscriber.Topics, expectedTopics))
	}
	expectedMessages := []any{"Hello", "World", "!"}
	if !reflect.DeepEqual(subscriber.Messages, expectedMessages) {
		t.Error("the messages should be correct:")
		t.Log(pretty.Diff(subscriber.Messages, expectedMessages))
	}

	// Commit on an empty buffer is a no-op.
	if err := p.Commit(ctx); err != nil {
		t.Error("there should be no error:", err)
	}
	if len(subscriber.Messages) != 3 {
		t.Error("there should be no redelivery:", subscriber.Messages)
	}
}

func TestPublisher_TopicMatching(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	one := &mocks.Subscriber{}
	if err := p.AddSubscriber(ab.MatchTopics("topic-1"), one); err != nil {
		t.Fatal("there should be no error:", err)
	}
	all := &mocks.Subscriber{}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), all); err != nil {
		t.Fatal("there should be no error:", err)
	}

	ctx := context.Background()
	if err := p.Publish(ctx, "topic-1", "one"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Publish(ctx, "topic-2", "two"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Commit(ctx); err != nil {
		t.Error("there should be no error:", err)
	}

	if !reflect.DeepEqual(one.Messages, []any{"one"}) {
		t.Error("the matched messages should be correct:", one.Messages)
	}
	if !reflect.DeepEqual(all.Messages, []any{"one", "two"}) {
		t.Error("all messages should be delivered:", all.Messages)
	}
}

func TestPublisher_SubscriberDeps(t *testing.T) {
	r := ab.NewResolver()
	if err := r.Provide("store", func(ctx context.Context) (any, error) {
		return "real", nil
	}); err != nil {
		t.Fatal("there should be no error:", err)
	}

	p, err := NewPublisher(WithResolver(r))
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	subscriber := &mocks.Subscriber{}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), subscriber, "store"); err != nil {
		t.Fatal("there should be no error:", err)
	}

	ctx := context.Background()
	if err := p.Publish(ctx, "topic", "message"); err != nil {
		t.Fatal("there should be no error:", err)
	}

	// Deps resolve at delivery time, so an override set between Publish and
	// Commit applies.
	r.SetOverride("store", func(ctx context.Context) (any, error) {
		return "fake", nil
	})

	if err := p.Commit(ctx); err != nil {
		t.Error("there should be no error:", err)
	}
	if !reflect.DeepEqual(subscriber.Deps, ab.Deps{"store": "fake"}) {
		t.Error("the deps should be the overridden ones:", subscriber.Deps)
	}
}

func TestPublisher_CommitSubscriberError(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	subscriberErr := errors.New("subscriber error")
	failing := &mocks.Subscriber{Err: subscriberErr}
	if err := p.AddSubscriber(ab.MatchTopics("topic-1"), failing); err != nil {
		t.Fatal("there should be no error:", err)
	}
	other := &mocks.Subscriber{}
	if err := p.AddSubscriber(ab.MatchTopics("topic-2"), other); err != nil {
		t.Fatal("there should be no error:", err)
	}

	ctx := context.Background()
	if err := p.Publish(ctx, "topic-1", "failing"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Publish(ctx, "topic-2", "skipped"); err != nil {
		t.Fatal("there should be no error:", err)
	}

	if err := p.Commit(ctx); !errors.Is(err, subscriberErr) {
		t.Error("there should be a subscriber error:", err)
	}
	if len(other.Messages) != 0 {
		t.Error("delivery should have been aborted:", other.Messages)
	}

	// The buffer is cleared in full either way, a retried Commit never
	// redelivers.
	if err := p.Commit(ctx); err != nil {
		t.Error("there should be no error:", err)
	}
	if len(other.Messages) != 0 {
		t.Error("there should be no redelivery:", other.Messages)
	}
}
