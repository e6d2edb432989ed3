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

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestResolver_Provide(t *testing.T) {
	r := NewResolver()

	p := func(ctx context.Context) (any, error) { return "value", nil }

	if err := r.Provide("key", nil); !errors.Is(err, ErrMissingProvider) {
		t.Error("there should be a missing provider error:", err)
	}
	if err := r.Provide("key", p); err != nil {
		t.Error("there should be no error:", err)
	}
	if err := r.Provide("key", p); !errors.Is(err, ErrProviderAlreadySet) {
		t.Error("there should be a provider already set error:", err)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver()

	if err := r.Provide("a", func(ctx context.Context) (any, error) {
		return 1, nil
	}); err != nil {
		t.Fatal("there should be no error:", err)
	}
	if err := r.Provide("b", func(ctx context.Context) (any, error) {
		return 2, nil
	}); err != nil {
		t.Fatal("there should be no error:", err)
	}

	deps, err := r.Resolve(context.Background(), "a", "b")
	if err != nil {
		t.Error("there should be no error:", err)
	}
	if !reflect.DeepEqual(deps, Deps{"a": 1, "b": 2}) {
		t.Error("the deps should be correct:", deps)
	}

	// No keys resolves to nothing.
	deps, err = r.Resolve(context.Background())
	if err != nil {
		t.Error("there should be no error:", err)
	}
	if deps != nil {
		t.Error("there should be no deps:", deps)
	}
}

func TestResolver_ResolveNotFound(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "missing")
	var resolutionErr *DependencyResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatal("there should be a dependency resolution error:", err)
	}
	if resolutionErr.Key != "missing" {
		t.Error("the failing key should be correct:", resolutionErr.Key)
	}
	if !errors.Is(err, ErrProviderNotFound) {
		t.Error("the cause should be a provider not found error:", err)
	}
}

func TestResolver_ResolveProviderError(t *testing.T) {
	r := NewResolver()

	providerErr := errors.New("provider error")
	if err := r.Provide("failing", func(ctx context.Context) (any, error) {
		return nil, providerErr
	}); err != nil {
		t.Fatal("there should be no error:", err)
	}

	_, err := r.Resolve(context.Background(), "failing")
	var resolutionErr *DependencyResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatal("there should be a dependency resolution error:", err)
	}
	if !errors.Is(err, providerErr) {
		t.Error("the cause should be the provider error:", err)
	}
}

func TestResolver_Override(t *testing.T) {
	r := NewResolver()

	if err := r.Provide("store", func(ctx context.Context) (any, error) {
		return "real", nil
	}); err != nil {
		t.Fatal("there should be no error:", err)
	}

	// Overrides apply at call time, also when set after registration.
	r.SetOverride("store", func(ctx context.Context) (any, error) {
		return "fake", nil
	})

	deps, err := r.Resolve(context.Background(), "store")
	if err != nil {
		t.Error("there should be no error:", err)
	}
	if !reflect.DeepEqual(deps, Deps{"store": "fake"}) {
		t.Error("the override should win:", deps)
	}

	r.ClearOverride("store")

	deps, err = r.Resolve(context.Background(), "store")
	if err != nil {
		t.Error("there should be no error:", err)
	}
	if !reflect.DeepEqual(deps, Deps{"store": "real"}) {
		t.Error("the default provider should be restored:", deps)
	}
}

func TestResolver_OverrideWithoutDefault(t *testing.T) {
	r := NewResolver()

	// A key can be overridden before (or without) a default provider.
	r.SetOverride("store", func(ctx context.Context) (any, error) {
		return "fake", nil
	})

	deps, err := r.Resolve(context.Background(), "store")
	if err != nil {
		t.Error("there should be no error:", err)
	}
	if !reflect.DeepEqual(deps, Deps{"store": "fake"}) {
		t.Error("the override should resolve:", deps)
	}

	r.ClearOverrides()

	if _, err := r.Resolve(context.Background(), "store"); !errors.Is(err, ErrProviderNotFound) {
		t.Error("there should be a provider not found error:", err)
	}
}

func TestDepAs(t *testing.T) {
	deps := Deps{"n": 42, "s": "text"}

	if n, ok := DepAs[int](deps, "n"); !ok || n != 42 {
		t.Error("the int dep should be correct:", n, ok)
	}
	if _, ok := DepAs[string](deps, "n"); ok {
		t.Error("a type mismatch should not be ok")
	}
	if _, ok := DepAs[int](deps, "missing"); ok {
		t.Error("a missing key should not be ok")
	}
}
