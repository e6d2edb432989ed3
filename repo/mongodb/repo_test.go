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

package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/mocks"
	"github.com/atombus/atombus/uuid"
)

func TestRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:6")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatal("there should be no error:", err)
	}

	r, err := NewRepo(uri, "test")
	if err != nil {
		t.Fatal("there should be no error:", err)
	}
	defer r.Close(ctx) //nolint:errcheck

	t.Run("store and restore", func(t *testing.T) {
		aggregate := mocks.NewAggregate()
		aggregate.Content = "committed"

		if err := r.Store(ctx, aggregate); err != nil {
			t.Fatal("there should be no error:", err)
		}

		id := aggregate.EntityID()
		aggregate.Content = "mutated"
		aggregate.Publish(mocks.Event{Content: "pending"})

		if err := r.Restore(ctx, aggregate); err != nil {
			t.Error("there should be no error:", err)
		}
		if aggregate.Content != "committed" {
			t.Error("the state should have been reverted:", aggregate.Content)
		}

		// Identity and the event queue survive the BSON round trip.
		if aggregate.EntityID() != id {
			t.Error("the ID should be unchanged:", aggregate.EntityID())
		}
		if events := aggregate.Pull(); len(events) != 1 {
			t.Error("the pending events should be untouched:", events)
		}
	})

	t.Run("track caches the stored state", func(t *testing.T) {
		aggregate := mocks.NewAggregate()
		aggregate.Content = "v1"

		if err := r.Store(ctx, aggregate); err != nil {
			t.Fatal("there should be no error:", err)
		}
		if err := r.Track(ctx, aggregate); err != nil {
			t.Fatal("there should be no error:", err)
		}

		aggregate.Content = "v2"
		if err := r.Restore(ctx, aggregate); err != nil {
			t.Error("there should be no error:", err)
		}
		if aggregate.Content != "v1" {
			t.Error("the state should have been reverted:", aggregate.Content)
		}
	})

	t.Run("track without stored state", func(t *testing.T) {
		aggregate := mocks.NewAggregate()
		aggregate.Content = "unsaved"

		if err := r.Track(ctx, aggregate); err != nil {
			t.Fatal("there should be no error:", err)
		}

		// Never stored, so there is no database state to revert to.
		if err := r.Restore(ctx, aggregate); err != nil {
			t.Error("there should be no error:", err)
		}
		if aggregate.Content != "unsaved" {
			t.Error("the state should be untouched:", aggregate.Content)
		}
	})

	t.Run("restore of an unknown aggregate", func(t *testing.T) {
		err := r.Restore(ctx, mocks.NewAggregate())
		if !errors.Is(err, ab.ErrEntityNotFound) {
			t.Error("there should be an entity not found error:", err)
		}
	})

	t.Run("store without an ID", func(t *testing.T) {
		err := r.Store(ctx, valueAggregate{})
		if !errors.Is(err, ab.ErrCouldNotSaveEntity) {
			t.Error("there should be a could not save error:", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		aggregate := mocks.NewAggregate()
		if err := r.Store(ctx, aggregate); err != nil {
			t.Fatal("there should be no error:", err)
		}

		if err := r.Remove(ctx, aggregate.EntityID()); err != nil {
			t.Error("there should be no error:", err)
		}
		if err := r.Restore(ctx, aggregate); !errors.Is(err, ab.ErrEntityNotFound) {
			t.Error("there should be an entity not found error:", err)
		}
		if err := r.Remove(ctx, uuid.New()); !errors.Is(err, ab.ErrEntityNotFound) {
			t.Error("there should be an entity not found error:", err)
		}
	})
}

// valueAggregate has a Nil ID and cannot be stored.
type valueAggregate struct{}

func (valueAggregate) EntityID() uuid.UUID { return uuid.Nil }
func (valueAggregate) Publish(ab.Event)    {}
func (valueAggregate) Pull() []ab.Event    { return nil }
