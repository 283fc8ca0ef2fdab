/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package atomic

import (
	"context"
)

// FuncWalk is called once per entry during Config.Walk/WalkLimit; return
// false to stop iterating early.
type FuncWalk[K comparable] func(key K, val interface{}) bool

// Config combines a cancellable context with a thread-safe key/value
// store, the shape logger and fields use to carry mutable state that
// outlives any single call: a context.Context's own Value is
// request-scoped and immutable, which does not fit a logger whose level
// or fields change after construction.
type Config[K comparable] interface {
	context.Context

	// GetContext returns the Config itself as a plain context.Context,
	// for handing to APIs that only need cancellation/deadline
	// propagation and not the key/value store.
	GetContext() context.Context

	Load(key K) (value interface{}, ok bool)
	Store(key K, value interface{})
	Delete(key K)
	Walk(fct FuncWalk[K])
	WalkLimit(fct FuncWalk[K], validKeys ...K)
}

type cfg[K comparable] struct {
	context.Context
	m Map[K]
}

// NewConfig returns a Config seeded from parent (any context.Context,
// including another Config — Clone-like reuse by passing one Config as
// another's parent).
func NewConfig[K comparable](parent context.Context) Config[K] {
	if parent == nil {
		parent = context.Background()
	}
	return &cfg[K]{Context: parent, m: NewMapAny[K]()}
}

func (c *cfg[K]) GetContext() context.Context { return c }

func (c *cfg[K]) Load(key K) (interface{}, bool) { return c.m.Load(key) }
func (c *cfg[K]) Store(key K, value interface{}) { c.m.Store(key, value) }
func (c *cfg[K]) Delete(key K)                   { c.m.Delete(key) }

func (c *cfg[K]) Walk(fct FuncWalk[K]) {
	if fct == nil {
		return
	}
	c.m.Range(func(key K, value interface{}) bool {
		return fct(key, value)
	})
}

func (c *cfg[K]) WalkLimit(fct FuncWalk[K], validKeys ...K) {
	if fct == nil {
		return
	}

	if len(validKeys) == 0 {
		c.Walk(fct)
		return
	}

	allowed := make(map[any]struct{}, len(validKeys))
	for _, k := range validKeys {
		allowed[k] = struct{}{}
	}

	c.m.Range(func(key K, value interface{}) bool {
		if _, ok := allowed[key]; !ok {
			return true
		}
		return fct(key, value)
	})
}
