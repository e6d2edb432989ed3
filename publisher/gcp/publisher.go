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

package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
)

var _ = ab.Subscriber(&Sink{})

// Sink is a subscriber that forwards messages committed by a staged
// publisher to a Google Cloud Pub/Sub topic named "<appID>_messages", with
// the publication topic in the "topic" attribute. Delivery happens at
// commit time only, so a rolled back unit of work never reaches Pub/Sub.
type Sink struct {
	client     *pubsub.Client
	clientOpts []option.ClientOption
	topic      *pubsub.Topic
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

// WithPubSubOptions adds the client options to the underlying client, for
// example to use an emulator or alternative credentials.
func WithPubSubOptions(opts ...option.ClientOption) Option {
	return func(s *Sink) error {
		s.clientOpts = opts
		return nil
	}
}

// NewSink creates a Sink, creating the Pub/Sub topic if needed.
func NewSink(ctx context.Context, projectID, appID string, options ...Option) (*Sink, error) {
	s := &Sink{
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

	var err error
	if s.client, err = pubsub.NewClient(ctx, projectID, s.clientOpts...); err != nil {
		return nil, fmt.Errorf("could not create Pub/Sub client: %w", err)
	}

	name := appID + "_messages"
	s.topic = s.client.Topic(name)
	if ok, err := s.topic.Exists(ctx); err != nil {
		return nil, fmt.Errorf("could not check Pub/Sub topic: %w", err)
	} else if !ok {
		if s.topic, err = s.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("could not create Pub/Sub topic: %w", err)
		}
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

	res := s.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"topic": topic,
		},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Close stops the topic's publish goroutines and closes the client.
func (s *Sink) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
