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
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/uuid"
)

const defaultCollectionName = "aggregates"

var _ = ab.Repository(&Repo{})
var _ = ab.Tracker(&Repo{})

// Repo is a MongoDB repository of aggregates. Each aggregate is kept as one
// document with its exported state under a "state" subdocument.
//
// Track caches the stored document (or its absence) when an aggregate joins
// a session; Restore reverts the aggregate to that cached state without
// another round trip. An aggregate that has never been stored keeps its
// in-memory state on Restore — there is no database state to revert to.
type Repo struct {
	client         *mongo.Client
	dbOwnership    dbOwnership
	entities       *mongo.Collection
	collectionName string

	snapshots   map[uuid.UUID]bson.Raw
	snapshotsMu sync.Mutex
}

type dbOwnership int

const (
	internalDB dbOwnership = iota
	externalDB
)

type doc struct {
	ID    string   `bson:"_id"`
	State bson.Raw `bson:"state"`
}

// Option is an option setter used to configure creation.
type Option func(*Repo) error

// WithCollectionName uses the given collection instead of the default.
func WithCollectionName(name string) Option {
	return func(r *Repo) error {
		if name == "" {
			return errors.New("missing collection name")
		}
		r.collectionName = name
		return nil
	}
}

// NewRepo creates a new Repo connecting to the given URI.
func NewRepo(uri, dbName string, opts ...Option) (*Repo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("could not connect to DB: %w", err)
	}

	return newRepo(client, dbName, internalDB, opts...)
}

// NewRepoWithClient creates a new Repo with an existing client.
func NewRepoWithClient(client *mongo.Client, dbName string, opts ...Option) (*Repo, error) {
	return newRepo(client, dbName, externalDB, opts...)
}

func newRepo(client *mongo.Client, dbName string, ownership dbOwnership, opts ...Option) (*Repo, error) {
	if client == nil {
		return nil, errors.New("missing DB client")
	}

	r := &Repo{
		client:         client,
		dbOwnership:    ownership,
		collectionName: defaultCollectionName,
		snapshots:      map[uuid.UUID]bson.Raw{},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("error while applying option: %w", err)
		}
	}

	if err := client.Ping(context.Background(), readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}

	r.entities = client.Database(dbName).Collection(r.collectionName)

	return r, nil
}

// Track implements the Track method of the atombus.Tracker interface.
func (r *Repo) Track(ctx context.Context, aggregate ab.Aggregate) error {
	id := aggregate.EntityID()

	var d doc
	err := r.entities.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return &ab.RepoError{Err: ab.ErrEntityNotFound, BaseErr: err}
	}

	r.snapshotsMu.Lock()
	defer r.snapshotsMu.Unlock()

	// A nil snapshot marks an aggregate without stored state.
	r.snapshots[id] = d.State
	return nil
}

// Store implements the Store method of the atombus.Repository interface.
func (r *Repo) Store(ctx context.Context, aggregate ab.Aggregate) error {
	id := aggregate.EntityID()
	if id == uuid.Nil {
		return &ab.RepoError{Err: ab.ErrCouldNotSaveEntity, BaseErr: errors.New("missing aggregate ID")}
	}

	state, err := bson.Marshal(aggregate)
	if err != nil {
		return &ab.RepoError{Err: ab.ErrCouldNotSaveEntity, BaseErr: err}
	}

	if _, err := r.entities.ReplaceOne(ctx,
		bson.M{"_id": id.String()},
		doc{ID: id.String(), State: state},
		options.Replace().SetUpsert(true),
	); err != nil {
		return &ab.RepoError{Err: ab.ErrCouldNotSaveEntity, BaseErr: err}
	}

	r.snapshotsMu.Lock()
	defer r.snapshotsMu.Unlock()

	r.snapshots[id] = state
	return nil
}

// Restore implements the Restore method of the atombus.Repository interface.
func (r *Repo) Restore(ctx context.Context, aggregate ab.Aggregate) error {
	id := aggregate.EntityID()

	r.snapshotsMu.Lock()
	state, tracked := r.snapshots[id]
	r.snapshotsMu.Unlock()

	if !tracked {
		var d doc
		if err := r.entities.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return &ab.RepoError{Err: ab.ErrEntityNotFound}
			}
			return &ab.RepoError{Err: ab.ErrEntityNotFound, BaseErr: err}
		}
		state = d.State
	}

	if state == nil {
		// Tracked but never stored; nothing to revert to.
		return nil
	}

	if err := unmarshalState(aggregate, state); err != nil {
		return &ab.RepoError{Err: ab.ErrEntityNotFound, BaseErr: err}
	}
	return nil
}

// Remove removes an aggregate by ID.
func (r *Repo) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := r.entities.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return &ab.RepoError{Err: ab.ErrEntityNotFound, BaseErr: err}
	}
	if res.DeletedCount == 0 {
		return &ab.RepoError{Err: ab.ErrEntityNotFound}
	}

	r.snapshotsMu.Lock()
	defer r.snapshotsMu.Unlock()

	delete(r.snapshots, id)
	return nil
}

// Close closes the underlying client if the repo owns it.
func (r *Repo) Close(ctx context.Context) error {
	if r.dbOwnership == externalDB {
		return nil
	}
	return r.client.Disconnect(ctx)
}

// unmarshalState decodes the stored state onto the aggregate while keeping
// its embedded Root (identity and event queue) intact; the BSON decoder
// would otherwise replace it with an empty one.
func unmarshalState(aggregate ab.Aggregate, state bson.Raw) error {
	v := reflect.ValueOf(aggregate)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("aggregate must be a pointer to a struct, got %T", aggregate)
	}

	elem := v.Elem()
	rootType := reflect.TypeOf(&ab.Root{})
	var roots []int
	for i := 0; i < elem.NumField(); i++ {
		if elem.Type().Field(i).Type == rootType {
			roots = append(roots, i)
		}
	}
	kept := make([]reflect.Value, len(roots))
	for i, idx := range roots {
		kept[i] = reflect.ValueOf(elem.Field(idx).Interface())
	}

	if err := bson.Unmarshal(state, aggregate); err != nil {
		return fmt.Errorf("could not unmarshal aggregate state: %w", err)
	}

	for i, idx := range roots {
		elem.Field(idx).Set(kept[i])
	}
	return nil
}
