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

// Command is an imperative request for the domain to perform an action.
//
// A command name should 1) be in present tense and 2) contain the intent
// (MoveCustomer vs CorrectCustomerAddress).
//
// The command should contain all the data needed when handling it as fields.
// Each command type has exactly one handler.
type Command interface {
	// CommandType returns the type of the command.
	CommandType() CommandType
}

// CommandType is the type of a command, used as its unique identifier.
type CommandType string

// String implements the fmt.Stringer interface.
func (ct CommandType) String() string {
	return string(ct)
}

// CommandHandler is a handler of commands. Dependencies declared at
// registration are resolved just before the call and passed as deps.
type CommandHandler interface {
	// HandleCommand handles a command.
	HandleCommand(ctx context.Context, cmd Command, deps Deps) error
}

// CommandHandlerFunc is a function that can be used as a command handler.
type CommandHandlerFunc func(ctx context.Context, cmd Command, deps Deps) error

// HandleCommand implements the HandleCommand method of the CommandHandler interface.
func (h CommandHandlerFunc) HandleCommand(ctx context.Context, cmd Command, deps Deps) error {
	return h(ctx, cmd, deps)
}

// Dispatcher is the dispatching side of a Bus, used by components that only
// need to hand off commands and events, such as the Session or middleware.
type Dispatcher interface {
	// HandleCommand routes a command to its registered handler and runs the
	// resulting event cascade to completion.
	HandleCommand(ctx context.Context, cmd Command) error

	// PublishEvent dispatches an event to all matching handlers, in
	// registration order, draining any events they produce in turn.
	PublishEvent(ctx context.Context, event Event) error
}
