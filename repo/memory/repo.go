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

package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jinzhu/copier"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/uuid"
)

var _ = ab.Repository(&Repo{})
var _ = ab.Tracker(&Repo{})

// Repo is an in-memory repository of aggregates. Track and Store take deep
// copies of the aggregate's exported state; Restore copies the most recent
// of those back onto the aggregate, reverting uncommitted mutations.
//
// Aggregates must be pointers to structs that embed *atombus.Root; the Root
// itself is left untouched by Restore so identity survives a rollback.
type Repo struct {
	// db holds committed state, snapshots holds pre-scope state from Track.
	db        map[uuid.UUID]any
	snapshots map[uuid.UUID]any
	dbMu      sync.RWMutex
}

// NewRepo creates a new Repo.
func NewRepo() *Repo {
	return &Repo{
		db:        map[uuid.UUID]any{},
		snapshots: map[uuid.UUID]any{},
	}
}

// Track implements the Track method of the atombus.Tracker interface. It
// snapshots the aggregate's state at the moment it joins a session, which
// is what Restore reverts to if the aggregate is never stored.
func (r *Repo) Track(ctx context.Context, aggregate ab.Aggregate) error {
	snapshot, err := clone(aggregate)
	if err != nil {
		return &ab.RepoError{Err: ab.ErrCouldNotSaveEntity, BaseErr: err}
	}

	r.dbMu.Lock()
	defer r.dbMu.Unlock()

	r.snapshots[aggregate.EntityID()] = snapshot
	return nil
}

// Store implements the Store method of the atombus.Repository interface.
func (r *Repo) Store(ctx context.Context, aggregate ab.Aggregate) error {
	stored, err := clone(aggregate)
	if err != nil {
		return &ab.RepoError{Err: ab.ErrCouldNotSaveEntity, BaseErr: err}
	}

	r.dbMu.Lock()
	defer r.dbMu.Unlock()

	id := aggregate.EntityID()
	r.db[id] = stored
	// Committed state becomes the new baseline for later rollbacks.
	r.snapshots[id] = stored
	return nil
}

// Restore implements the Restore method of the atombus.Repository interface.
func (r *Repo) Restore(ctx context.Context, aggregate ab.Aggregate) error {
	r.dbMu.RLock()
	snapshot, ok := r.snapshots[aggregate.EntityID()]
	if !ok {
		snapshot, ok = r.db[aggregate.EntityID()]
	}
	r.dbMu.RUnlock()

	if !ok {
		return &ab.RepoError{Err: ab.ErrEntityNotFound}
	}

	if err := copyState(aggregate, snapshot); err != nil {
		return &ab.RepoError{Err: ab.ErrEntityNotFound, BaseErr: err}
	}
	return nil
}

// Remove removes an aggregate by ID, together with its snapshot.
func (r *Repo) Remove(ctx context.Context, id uuid.UUID) error {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()

	if _, ok := r.db[id]; !ok {
		if _, ok := r.snapshots[id]; !ok {
			return &ab.RepoError{Err: ab.ErrEntityNotFound}
		}
	}

	delete(r.db, id)
	delete(r.snapshots, id)
	return nil
}

// clone returns a deep copy of the aggregate's exported state in a fresh
// struct of the same concrete type.
func clone(aggregate ab.Aggregate) (any, error) {
	v := reflect.ValueOf(aggregate)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("aggregate must be a pointer to a struct, got %T", aggregate)
	}

	c := reflect.New(v.Elem().Type()).Interface()
	if err := copier.CopyWithOption(c, aggregate, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("could not copy aggregate: %w", err)
	}

	return c, nil
}

// copyState deep copies the snapshot's exported fields onto dst while
// keeping dst's embedded Root (and thereby its identity and event queue)
// intact.
func copyState(dst ab.Aggregate, snapshot any) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("aggregate must be a pointer to a struct, got %T", dst)
	}

	// Remember every Root-typed field; the copy below would replace them
	// with the snapshot's detached Root.
	elem := dv.Elem()
	rootType := reflect.TypeOf(&ab.Root{})
	var roots []int
	for i := 0; i < elem.NumField(); i++ {
		if elem.Type().Field(i).Type == rootType {
			roots = append(roots, i)
		}
	}
	kept := make([]reflect.Value, len(roots))
	for i, idx := range roots {
		// Materialize the current pointer; the field itself is about to be
		// overwritten.
		kept[i] = reflect.ValueOf(elem.Field(idx).Interface())
	}

	if err := copier.CopyWithOption(dst, snapshot, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("could not copy aggregate state: %w", err)
	}

	for i, idx := range roots {
		elem.Field(idx).Set(kept[i])
	}
	return nil
}
