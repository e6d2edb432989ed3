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

package json

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MessageCodec is a codec for marshaling and unmarshaling messages to and
// from bytes in JSON format.
type MessageCodec struct{}

// msg is the internal message envelope used to marshal and unmarshal messages.
type msg struct {
	Topic     string          `json:"topic"`
	RawData   json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarshalMessage marshals a message into bytes in JSON format.
func (c *MessageCodec) MarshalMessage(ctx context.Context, topic string, message any) ([]byte, error) {
	m := msg{
		Topic:     topic,
		Timestamp: time.Now(),
	}

	if message != nil {
		var err error
		if m.RawData, err = json.Marshal(message); err != nil {
			return nil, fmt.Errorf("could not marshal message data: %w", err)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("could not marshal message: %w", err)
	}

	return b, nil
}

// UnmarshalMessage unmarshals a message from bytes in JSON format. The data
// is returned decoded into generic JSON values, as a receiving process does
// not share the publisher's concrete types.
func (c *MessageCodec) UnmarshalMessage(ctx context.Context, b []byte) (string, any, error) {
	var m msg
	if err := json.Unmarshal(b, &m); err != nil {
		return "", nil, fmt.Errorf("could not unmarshal message: %w", err)
	}

	var data any
	if len(m.RawData) > 0 {
		if err := json.Unmarshal(m.RawData, &data); err != nil {
			return "", nil, fmt.Errorf("could not unmarshal message data: %w", err)
		}
	}

	return m.Topic, data, nil
}
