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

// Package atombus is an in-process dispatch core for domain-driven
// applications: commands and events are routed to registered handlers with
// call-time dependency injection, outbound messages are staged until commit,
// and a Session ties aggregate persistence, event dispatch and message
// publication into one unit of work that commits or rolls back as a whole.
//
// All dispatching is synchronous and runs on the calling goroutine; a Bus,
// Publisher or Session must not be shared between concurrent sessions
// without external synchronization.
package atombus
