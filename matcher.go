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

// EventMatcher is a func that can match an event to a criteria.
type EventMatcher func(Event) bool

// MatchAny matches any event.
func MatchAny() EventMatcher {
	return func(e Event) bool {
		return true
	}
}

// MatchEvent matches a specific event type, nil events never match.
func MatchEvent(t EventType) EventMatcher {
	return func(e Event) bool {
		return e != nil && e.EventType() == t
	}
}

// MatchAnyOf matches if any of several matchers matches.
func MatchAnyOf(matchers ...EventMatcher) EventMatcher {
	return func(e Event) bool {
		for _, m := range matchers {
			if m(e) {
				return true
			}
		}
		return false
	}
}

// MatchAnyEventOf matches if the event is of any of the given types.
func MatchAnyEventOf(types ...EventType) EventMatcher {
	return func(e Event) bool {
		for _, t := range types {
			if MatchEvent(t)(e) {
				return true
			}
		}
		return false
	}
}

// TopicMatcher is a func that can match a publication topic to a criteria.
type TopicMatcher func(topic string) bool

// MatchAnyTopic matches any topic.
func MatchAnyTopic() TopicMatcher {
	return func(topic string) bool {
		return true
	}
}

// MatchTopics matches any of the given topics exactly.
func MatchTopics(topics ...string) TopicMatcher {
	return func(topic string) bool {
		for _, t := range topics {
			if t == topic {
				return true
			}
		}
		return false
	}
}
