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

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
	"github.com/atombus/atombus/publisher/local"
)

func TestSinkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Use Redis in Docker with fallback to localhost.
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	sink, err := NewSink(addr, "app-id")
	if err != nil {
		t.Fatal("there should be no error:", err)
	}
	defer sink.Close()

	ctx := context.Background()

	// Listen on the channel the sink publishes to.
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	sub := client.Subscribe(ctx, "app-id:topic-1")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal("there should be no error:", err)
	}

	p, err := local.NewPublisher()
	if err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.AddSubscriber(ab.MatchAnyTopic(), sink); err != nil {
		t.Fatal("there should be no error:", err)
	}

	// A rolled back message must not reach Redis.
	if err := p.Publish(ctx, "topic-1", "discarded"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	p.Rollback()

	if err := p.Publish(ctx, "topic-1", "committed"); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := p.Commit(ctx); err != nil {
		t.Fatal("there should be no error:", err)
	}

	select {
	case m := <-sub.Channel():
		codec := &json.MessageCodec{}
		topic, data, err := codec.UnmarshalMessage(ctx, []byte(m.Payload))
		if err != nil {
			t.Fatal("there should be no error:", err)
		}
		if topic != "topic-1" {
			t.Error("the topic should be correct:", topic)
		}
		if data != "committed" {
			t.Error("the data should be correct:", data)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the message")
	}

	// No second message may arrive; the rolled back one is gone.
	select {
	case m := <-sub.Channel():
		t.Error("there should be no more messages:", m.Payload)
	case <-time.After(time.Second):
	}
}
