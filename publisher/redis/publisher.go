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
	"fmt"

	"github.com/go-redis/redis/v8"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
)

var _ = ab.Subscriber(&Sink{})

// Sink is a subscriber that forwards messages committed by a staged
// publisher to Redis pub/sub, one channel per topic prefixed with the app
// ID. Add it to a publisher with the topics it should forward:
//
//	p.AddSubscriber(ab.MatchAnyTopic(), sink)
//
// Delivery happens at commit time only, so a rolled back unit of work never
// reaches Redis.
type Sink struct {
	appID      string
	client     *redis.Client
	clientOpts *redis.Options
	codec      ab.MessageCodec
}

// Option is an option setter used to configure creation.
type Option func(*Sink) error

// WithCodec uses the specified codec for encoding messages.
func WithCodec(codec ab.MessageCodec) Option {
	return func(s *Sink) error {
		s.codec = codec
		return nil
	}
}

// WithRedisOptions uses the Redis options for the underlying client, instead
// of the defaults.
func WithRedisOptions(opts *redis.Options) Option {
	return func(s *Sink) error {
		s.clientOpts = opts
		return nil
	}
}

// NewSink creates a Sink, with optional settings.
func NewSink(addr, appID string, options ...Option) (*Sink, error) {
	s := &Sink{
		appID: appID,
		codec: &json.MessageCodec{},
	}

	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return nil, fmt.Errorf("error while applying option: %w", err)
		}
	}

	if s.clientOpts == nil {
		s.clientOpts = &redis.Options{
			Addr: addr,
		}
	}

	s.client = redis.NewClient(s.clientOpts)
	if res, err := s.client.Ping(context.Background()).Result(); err != nil || res != "PONG" {
		return nil, fmt.Errorf("could not check Redis server: %w", err)
	}

	return s, nil
}

// HandleMessage implements the HandleMessage method of the atombus.Subscriber
// interface.
func (s *Sink) HandleMessage(ctx context.Context, topic string, message any, deps ab.Deps) error {
	data, err := s.codec.MarshalMessage(ctx, topic, message)
	if err != nil {
		return fmt.Errorf("could not marshal message: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Close closes the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}

func (s *Sink) channel(topic string) string {
	return s.appID + ":" + topic
}
