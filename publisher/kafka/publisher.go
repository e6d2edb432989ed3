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

package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/segmentio/kafka-go"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
)

var _ = ab.Subscriber(&Sink{})

// Sink is a subscriber that forwards messages committed by a staged
// publisher to a single Kafka topic named "<appID>_messages", keyed by the
// publication topic. Delivery happens at commit time only, so a rolled back
// unit of work never reaches Kafka.
type Sink struct {
	addr   string
	appID  string
	topic  string
	writer *kafka.Writer
	codec  ab.MessageCodec
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

// NewSink creates a Sink, creating the Kafka topic if needed. Topic
// creation is retried with exponential backoff while the broker becomes
// available.
func NewSink(addr, appID string, options ...Option) (*Sink, error) {
	s := &Sink{
		addr:  addr,
		appID: appID,
		topic: appID + "_messages",
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

	if err := s.createTopic(); err != nil {
		return nil, err
	}

	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(addr),
		Topic:        s.topic,
		BatchSize:    1,                // Write every message without delay.
		RequiredAcks: kafka.RequireOne, // Stronger consistency.
	}

	return s, nil
}

func (s *Sink) createTopic() error {
	client := &kafka.Client{
		Addr: kafka.TCP(s.addr),
	}

	delay := &backoff.Backoff{
		Min: time.Second,
		Max: 30 * time.Second,
	}

	var resp *kafka.CreateTopicsResponse
	var err error
	for i := 0; i < 10; i++ {
		resp, err = client.CreateTopics(context.Background(), &kafka.CreateTopicsRequest{
			Topics: []kafka.TopicConfig{{
				Topic:             s.topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			}},
		})
		if errors.Is(err, kafka.BrokerNotAvailable) {
			time.Sleep(delay.Duration())
			continue
		} else if err != nil {
			return fmt.Errorf("error creating Kafka topic: %w", err)
		}
		break
	}
	if resp == nil {
		return fmt.Errorf("could not get/create Kafka topic in time: %w", err)
	}
	if topicErr, ok := resp.Errors[s.topic]; ok && topicErr != nil {
		if !errors.Is(topicErr, kafka.TopicAlreadyExists) {
			return fmt.Errorf("invalid Kafka topic: %w", topicErr)
		}
	}

	return nil
}

// HandleMessage implements the HandleMessage method of the atombus.Subscriber
// interface.
func (s *Sink) HandleMessage(ctx context.Context, topic string, message any, deps ab.Deps) error {
	data, err := s.codec.MarshalMessage(ctx, topic, message)
	if err != nil {
		return fmt.Errorf("could not marshal message: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(topic),
		Value: data,
	}); err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Close closes the underlying Kafka writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
