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

// Package scheduler dispatches commands on a delay or on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"

	ab "github.com/atombus/atombus"
)

// Command is a scheduled command with an execution time.
type Command interface {
	ab.Command

	// ExecuteAt returns the time when the command will execute.
	ExecuteAt() time.Time
}

// CommandWithExecuteTime returns a wrapped command with an execution time set.
func CommandWithExecuteTime(cmd ab.Command, t time.Time) Command {
	return &command{Command: cmd, t: t}
}

// private implementation to wrap ordinary commands and add an execution time.
type command struct {
	ab.Command
	t time.Time
}

// ExecuteAt implements the ExecuteAt method of the Command interface.
func (c *command) ExecuteAt() time.Time {
	return c.t
}

// Scheduler dispatches commands either directly, with a delay, or on a
// repeating cron schedule. Scheduled dispatches run on their own goroutines
// and report failures on the error channel; each dispatch drives the
// dispatcher on its own, so a dispatcher shared with synchronous callers
// needs external synchronization.
type Scheduler struct {
	dispatcher ab.Dispatcher
	errCh      chan error
}

// NewScheduler creates a Scheduler dispatching through d.
func NewScheduler(d ab.Dispatcher) *Scheduler {
	return &Scheduler{
		dispatcher: d,
		errCh:      make(chan error, 1),
	}
}

// Errors returns the error channel. Only the first undelivered error is
// kept.
func (s *Scheduler) Errors() <-chan error {
	return s.errCh
}

// HandleCommand implements the HandleCommand method of the
// atombus.Dispatcher interface. Commands wrapped with an execution time are
// dispatched when that time arrives; everything else is dispatched
// immediately.
func (s *Scheduler) HandleCommand(ctx context.Context, cmd ab.Command) error {
	c, ok := cmd.(Command)
	if !ok || c.ExecuteAt().IsZero() {
		return s.dispatcher.HandleCommand(ctx, cmd)
	}

	go func() {
		t := time.NewTimer(time.Until(c.ExecuteAt()))
		defer t.Stop()

		var err error
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-t.C:
			err = s.dispatcher.HandleCommand(ctx, cmd)
		}

		if err != nil {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	return nil
}

// PublishEvent implements the PublishEvent method of the atombus.Dispatcher
// interface.
func (s *Scheduler) PublishEvent(ctx context.Context, event ab.Event) error {
	return s.dispatcher.PublishEvent(ctx, event)
}

// ScheduleCommand dispatches commands on regular intervals, using a line in
// the crontab format to set up the timing. The commandFunc creates the
// command to dispatch given the triggered time. Cancelling the context stops
// the schedule.
func (s *Scheduler) ScheduleCommand(ctx context.Context, cronLine string, commandFunc func(time.Time) ab.Command) error {
	expr, err := cronexpr.Parse(cronLine)
	if err != nil {
		return err
	}

	go func() {
		for {
			nextTime := expr.Next(time.Now())
			select {
			case <-time.After(time.Until(nextTime)):
				if err := s.dispatcher.HandleCommand(ctx, commandFunc(nextTime)); err != nil {
					select {
					case s.errCh <- err:
					default:
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
