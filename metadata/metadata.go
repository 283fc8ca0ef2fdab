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

// Package metadata holds the key/value properties a message carries
// alongside its body (peer identity, socket type, user properties set at
// connect time). A single dictionary is shared, by reference, across
// every message frame produced for one connection, so the package is
// refcounted rather than copy-on-write: cloning a message bumps a count
// instead of duplicating the map.
package metadata

import "sync"

// Dict is a refcounted, read-mostly key/value dictionary. The zero value
// is not usable; construct with New.
type Dict struct {
	mu   sync.RWMutex
	refs int32
	kv   map[string]string
}

// New returns a Dict seeded from kv, owning one reference. kv is copied;
// later mutation by the caller of its original map does not leak through.
func New(kv map[string]string) *Dict {
	cp := make(map[string]string, len(kv))
	for k, v := range kv {
		cp[k] = v
	}
	return &Dict{refs: 1, kv: cp}
}

// Get looks up a property by name, matching per the core specification's
// "ASCII case-insensitive on lookup" rule for well-known keys, by
// normalizing to lower-case.
func (d *Dict) Get(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.kv[normalize(key)]
	return v, ok
}

// Set installs or overwrites a property. Callers must hold their own
// reference (i.e. not share a Dict across goroutines that might Set
// concurrently with unrelated readers) since Set is a write lock over
// the whole dictionary.
func (d *Dict) Set(key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kv[normalize(key)] = value
}

// Walk calls fn once per property in an unspecified order.
func (d *Dict) Walk(fn func(key, value string)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k, v := range d.kv {
		fn(k, v)
	}
}

// Retain increments the reference count and returns the same Dict, for
// call sites that want the refcount bump to read at the point of sharing
// (e.g. handing the same Dict to N fanned-out pipe writes).
func (d *Dict) Retain() *Dict {
	d.mu.Lock()
	d.refs++
	d.mu.Unlock()
	return d
}

// Release drops one reference. It never frees memory itself — Go's
// garbage collector does that once the last reference anywhere is
// dropped — but it lets callers assert (via RefCount in tests) that
// every Retain is matched, the same invariant the reference-counted
// message content in the core specification relies on.
func (d *Dict) Release() {
	d.mu.Lock()
	d.refs--
	d.mu.Unlock()
}

// RefCount reports the current reference count, for diagnostics and
// tests only.
func (d *Dict) RefCount() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refs
}

func normalize(key string) string {
	b := []byte(key)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
