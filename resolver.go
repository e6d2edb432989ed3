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
	"sync"
)

var (
	// ErrProviderAlreadySet is when a provider is already registered for a key.
	ErrProviderAlreadySet = errors.New("provider is already set")
	// ErrProviderNotFound is when no provider is registered for a key.
	ErrProviderNotFound = errors.New("no provider for dependency")
	// ErrMissingProvider is when a nil provider is given.
	ErrMissingProvider = errors.New("missing provider")
)

// Provider creates a dependency instance for injection into a handler.
type Provider func(ctx context.Context) (any, error)

// Deps holds the dependencies resolved for a single handler call, keyed by
// the dependency key given at registration.
type Deps map[string]any

// DepAs returns the dependency for a key as a concrete type. The second
// return value is false when the key is absent or holds another type.
func DepAs[T any](deps Deps, key string) (T, bool) {
	v, ok := deps[key].(T)
	return v, ok
}

// DependencyResolutionError is when a dependency for a handler could not be
// resolved, either because no provider is registered for the key or because
// the provider (or its override) failed.
type DependencyResolutionError struct {
	// Key is the dependency key that failed to resolve.
	Key string
	// Err is the underlying error.
	Err error
}

// Error implements the Error method of the error interface.
func (e *DependencyResolutionError) Error() string {
	return "could not resolve dependency " + e.Key + ": " + e.Err.Error()
}

// Unwrap implements the errors.Unwrap interface.
func (e *DependencyResolutionError) Unwrap() error {
	return e.Err
}

// Resolver resolves handler dependencies at call time. Providers are
// registered under stable string keys; an override registered for the same
// key takes priority until it is cleared again. Resolution always uses the
// override state at call time, not at handler registration time, which lets
// tests swap in doubles after all handlers are wired up.
type Resolver struct {
	providers   map[string]Provider
	overrides   map[string]Provider
	providersMu sync.RWMutex
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		providers: map[string]Provider{},
		overrides: map[string]Provider{},
	}
}

// Provide registers the default provider for a key.
func (r *Resolver) Provide(key string, p Provider) error {
	if p == nil {
		return ErrMissingProvider
	}

	r.providersMu.Lock()
	defer r.providersMu.Unlock()

	if _, ok := r.providers[key]; ok {
		return ErrProviderAlreadySet
	}

	r.providers[key] = p
	return nil
}

// SetOverride substitutes the provider for a key until ClearOverride is
// called. The key does not have to have a default provider yet. Overrides
// apply to every subsequent resolution on this Resolver, they do not vary
// per call.
func (r *Resolver) SetOverride(key string, p Provider) {
	r.providersMu.Lock()
	defer r.providersMu.Unlock()

	r.overrides[key] = p
}

// ClearOverride removes the override for a key, restoring the default
// provider.
func (r *Resolver) ClearOverride(key string) {
	r.providersMu.Lock()
	defer r.providersMu.Unlock()

	delete(r.overrides, key)
}

// ClearOverrides removes all overrides, typically at test teardown.
func (r *Resolver) ClearOverrides() {
	r.providersMu.Lock()
	defer r.providersMu.Unlock()

	r.overrides = map[string]Provider{}
}

// Resolve produces the dependencies for the given keys. Overrides are
// consulted first, then default providers. An unknown key or a failing
// provider aborts resolution with a *DependencyResolutionError.
func (r *Resolver) Resolve(ctx context.Context, keys ...string) (Deps, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	deps := make(Deps, len(keys))
	for _, key := range keys {
		p, err := r.provider(key)
		if err != nil {
			return nil, &DependencyResolutionError{Key: key, Err: err}
		}

		v, err := p(ctx)
		if err != nil {
			return nil, &DependencyResolutionError{Key: key, Err: err}
		}

		deps[key] = v
	}

	return deps, nil
}

func (r *Resolver) provider(key string) (Provider, error) {
	r.providersMu.RLock()
	defer r.providersMu.RUnlock()

	if p, ok := r.overrides[key]; ok {
		return p, nil
	}
	if p, ok := r.providers[key]; ok {
		return p, nil
	}

	return nil, ErrProviderNotFound
}
