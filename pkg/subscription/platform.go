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

package subscription

import "context"

// Platform is the hosting platform's introspection and control API. All
// calls are blocking network calls; implementations must apply a bounded
// timeout. Callers treat every method as fallible and degrade gracefully.
type Platform interface {
	// ListConsumers returns the names of all deployed consumers.
	// Implementations handle pagination internally.
	ListConsumers(ctx context.Context) ([]string, error)

	// ListBindings returns all bindings owned by the named consumer.
	ListBindings(ctx context.Context, consumer string) ([]Binding, error)

	// GetBinding reads one binding's current state by its opaque id.
	GetBinding(ctx context.Context, id string) (Binding, error)

	// SetBindingEnabled requests the binding be enabled or disabled.
	// Requesting the already-current state is not an error.
	SetBindingEnabled(ctx context.Context, id string, enabled bool) error
}
