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

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	ab "github.com/atombus/atombus"
)

// Repo is an atombus.Repository that adds tracing spans. It forwards the
// Track lifecycle hook when the wrapped repository supports it.
type Repo struct {
	ab.Repository
}

// NewRepo creates a Repo wrapping r.
func NewRepo(r ab.Repository) *Repo {
	return &Repo{Repository: r}
}

// Track implements the Track method of the atombus.Tracker interface.
func (r *Repo) Track(ctx context.Context, aggregate ab.Aggregate) error {
	t, ok := r.Repository.(ab.Tracker)
	if !ok {
		return nil
	}

	sp, ctx := opentracing.StartSpanFromContext(ctx, "Repo.Track")

	err := t.Track(ctx, aggregate)

	sp.SetTag("ab.aggregate_id", aggregate.EntityID())
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}

// Store implements the Store method of the atombus.Repository interface.
func (r *Repo) Store(ctx context.Context, aggregate ab.Aggregate) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "Repo.Store")

	err := r.Repository.Store(ctx, aggregate)

	sp.SetTag("ab.aggregate_id", aggregate.EntityID())
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}

// Restore implements the Restore method of the atombus.Repository interface.
func (r *Repo) Restore(ctx context.Context, aggregate ab.Aggregate) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "Repo.Restore")

	err := r.Repository.Restore(ctx, aggregate)

	sp.SetTag("ab.aggregate_id", aggregate.EntityID())
	if err != nil {
		ext.LogError(sp, err)
	}
	sp.Finish()

	return err
}
