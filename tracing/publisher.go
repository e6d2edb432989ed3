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

package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	ab "github.com/atombus/atombus"
)

// Publisher is an atombus.Publisher that adds tracing spans to staging and
// delivery. The Publish span is cheap bookkeeping (buffering only); the
// Commit span covers the actual subscriber deliveries.
type Publisher struct {
	ab.Publisher
}

// NewPublisher creates a Publisher wrapping p.
func NewPublisher(p ab.Publisher) *Publisher {
	return &Publisher{Publisher: p}
}

// Publish implements the Publish method of the atombus.Publisher interface.
func (p *Publisher) Publish(ctx context.Context, topic string, message any) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, fmt.Sprintf("Publish(%s)", topic))

	err := p.Publisher.Publish(ctx, topic, message)

	sp.SetTag("ab.topic", topic)
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}

// Commit implements the Commit method of the atombus.Publisher interface.
func (p *Publisher) Commit(ctx context.Context) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "Publisher.Commit")

	err := p.Publisher.Commit(ctx)

	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}
