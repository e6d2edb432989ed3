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

// Package tracing provides opentracing wrappers for the atombus interfaces.
package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	ab "github.com/atombus/atombus"
)

// Dispatcher is an atombus.Dispatcher that adds tracing spans around command
// handling and event cascades.
type Dispatcher struct {
	ab.Dispatcher
}

// NewDispatcher creates a Dispatcher wrapping d.
func NewDispatcher(d ab.Dispatcher) *Dispatcher {
	return &Dispatcher{Dispatcher: d}
}

// HandleCommand implements the HandleCommand method of the atombus.Dispatcher
// interface.
func (d *Dispatcher) HandleCommand(ctx context.Context, cmd ab.Command) error {
	opName := fmt.Sprintf("Command(%s)", cmd.CommandType())
	sp, ctx := opentracing.StartSpanFromContext(ctx, opName)

	err := d.Dispatcher.HandleCommand(ctx, cmd)

	sp.SetTag("ab.command_type", cmd.CommandType())
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}

// PublishEvent implements the PublishEvent method of the atombus.Dispatcher
// interface.
func (d *Dispatcher) PublishEvent(ctx context.Context, event ab.Event) error {
	opName := fmt.Sprintf("Event(%s)", event.EventType())
	sp, ctx := opentracing.StartSpanFromContext(ctx, opName)

	err := d.Dispatcher.PublishEvent(ctx, event)

	sp.SetTag("ab.event_type", event.EventType())
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}
