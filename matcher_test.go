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

import "testing"

func TestMatchAny(t *testing.T) {
	m := MatchAny()
	if !m(testEvent{}) {
		t.Error("match any should match")
	}
	if !m(nil) {
		t.Error("match any should match nil")
	}
}

func TestMatchEvent(t *testing.T) {
	m := MatchEvent("test:event")
	if !m(testEvent{}) {
		t.Error("the event type should match")
	}
	if m(testEventOther{}) {
		t.Error("another event type should not match")
	}
	if m(nil) {
		t.Error("nil should not match")
	}
}

func TestMatchAnyOf(t *testing.T) {
	m := MatchAnyOf(
		MatchEvent("test:event"),
		MatchEvent("test:event_other"),
	)
	if !m(testEvent{}) {
		t.Error("the first matcher should match")
	}
	if !m(testEventOther{}) {
		t.Error("the second matcher should match")
	}
}

func TestMatchAnyEventOf(t *testing.T) {
	m := MatchAnyEventOf("test:event", "test:event_other")
	if !m(testEvent{}) {
		t.Error("the first event type should match")
	}
	if !m(testEventOther{}) {
		t.Error("the second event type should match")
	}
	if m(nil) {
		t.Error("nil should not match")
	}
}

func TestMatchTopics(t *testing.T) {
	if !MatchAnyTopic()("any-topic") {
		t.Error("match any topic should match")
	}

	m := MatchTopics("topic-1", "topic-2")
	if !m("topic-1") || !m("topic-2") {
		t.Error("the listed topics should match")
	}
	if m("topic-3") {
		t.Error("an unlisted topic should not match")
	}
}
