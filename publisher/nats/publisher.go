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

package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
)

var _ = ab.Subscriber(&Sink{})

// Sink is a subscriber that forwards messages committed by a staged
// publisher to NATS, publishing on "<appID>.<topic>" subjects. Delivery
// happens at commit time only, so a rolled back unit of work never reaches
// NATS.
type Sink struct {
	appID    string
	conn     *nats.Conn
	connOpts []nats.Option
	codec    ab.MessageCodec
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

// WithNATSOptions adds the NATS options to the underlying connection.
func WithNATSOptions(opts ...nats.Option) Option {
	return func(s *Sink) error {
		s.connOpts = opts
		return nil
	}
}

// NewSink creates a Sink, with optional settings.
func NewSink(url, appID string, options ...Option) (*Sink, error) {
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

	var err error
	if s.conn, err = nats.Connect(url, s.connOpts...); err != nil {
		return nil, fmt.Errorf("could not connect to NATS: %w", err)
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

	if err := s.conn.Publish(s.subject(topic), data); err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Close drains and closes the underlying NATS connection.
func (s *Sink) Close() error {
	return s.conn.Drain()
}

// subject maps a topic to a NATS subject; spaces are not allowed in
// subjects.
func (s *Sink) subject(topic string) string {
	return s.appID + "." + strings.ReplaceAll(topic, " ", "_")
}
