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

// MessageCodec is a codec for marshaling and unmarshaling topic messages to
// and from bytes, used by the transport sinks.
type MessageCodec interface {
	// MarshalMessage marshals a topic and message into bytes.
	MarshalMessage(ctx context.Context, topic string, message any) ([]byte, error)

	// UnmarshalMessage unmarshals a topic and message from bytes.
	UnmarshalMessage(ctx context.Context, b []byte) (string, any, error)
}
