// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

// Package testutil provides an in-memory fake of the platform
// introspection API for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

// FakePlatform is a mutex-guarded in-memory subscription.Platform. Tests
// seed consumers and bindings, optionally inject per-call failures, and
// inspect recorded update calls.
type FakePlatform struct {
	mu       sync.Mutex
	bindings map[string]*subscription.Binding // by binding id
	order    []string                         // binding ids in seed order
	names    []string                         // consumer names in seed order

	// Injected failures. A set entry makes the corresponding call fail.
	ListConsumersErr error
	ListBindingsErr  map[string]error // by consumer
	GetBindingErr    map[string]error // by binding id
	UpdateErr        map[string]error // by binding id

	// UpdateCalls records every SetBindingEnabled invocation in order.
	UpdateCalls []UpdateCall
}

// UpdateCall is one recorded SetBindingEnabled invocation.
type UpdateCall struct {
	BindingID string
	Enabled   bool
}

// NewFakePlatform returns an empty fake platform.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		bindings:        make(map[string]*subscription.Binding),
		ListBindingsErr: make(map[string]error),
		GetBindingErr:   make(map[string]error),
		UpdateErr:       make(map[string]error),
	}
}

// AddConsumer registers a consumer with no bindings.
func (f *FakePlatform) AddConsumer(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addConsumerLocked(name)
}

func (f *FakePlatform) addConsumerLocked(name string) {
	for _, n := range f.names {
		if n == name {
			return
		}
	}
	f.names = append(f.names, name)
}

// AddBinding registers a binding for consumer and returns its generated id.
func (f *FakePlatform) AddBinding(consumer, queueRef string, state subscription.BindingState) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.addConsumerLocked(consumer)
	id := uuid.NewString()
	f.bindings[id] = &subscription.Binding{
		ID:       id,
		Consumer: consumer,
		QueueRef: queueRef,
		State:    state,
	}
	f.order = append(f.order, id)
	return id
}

// SetState overwrites a binding's state directly, bypassing the platform
// transition. Useful for simulating Transitioning states.
func (f *FakePlatform) SetState(bindingID string, state subscription.BindingState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bindings[bindingID]; ok {
		b.State = state
	}
}

// ListConsumers implements subscription.Platform.
func (f *FakePlatform) ListConsumers(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListConsumersErr != nil {
		return nil, f.ListConsumersErr
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out, nil
}

// ListBindings implements subscription.Platform.
func (f *FakePlatform) ListBindings(ctx context.Context, consumer string) ([]subscription.Binding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ListBindingsErr[consumer]; err != nil {
		return nil, err
	}
	var out []subscription.Binding
	for _, id := range f.order {
		if b := f.bindings[id]; b.Consumer == consumer {
			out = append(out, *b)
		}
	}
	return out, nil
}

// GetBinding implements subscription.Platform.
func (f *FakePlatform) GetBinding(ctx context.Context, id string) (subscription.Binding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.GetBindingErr[id]; err != nil {
		return subscription.Binding{}, err
	}
	b, ok := f.bindings[id]
	if !ok {
		return subscription.Binding{}, fmt.Errorf("binding %s not found", id)
	}
	return *b, nil
}

// SetBindingEnabled implements subscription.Platform.
func (f *FakePlatform) SetBindingEnabled(ctx context.Context, id string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.UpdateCalls = append(f.UpdateCalls, UpdateCall{BindingID: id, Enabled: enabled})

	if err := f.UpdateErr[id]; err != nil {
		return err
	}
	b, ok := f.bindings[id]
	if !ok {
		return fmt.Errorf("binding %s not found", id)
	}
	if enabled {
		b.State = subscription.StateEnabled
	} else {
		b.State = subscription.StateDisabled
	}
	return nil
}

var _ subscription.Platform = (*FakePlatform)(nil)
