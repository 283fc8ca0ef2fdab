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

package context

import (
	"sync"

	liberr "github/sabouaram/zmtp/errors"
	libpipe "github/sabouaram/zmtp/pipe"
)

// Binder is implemented by a socket once it has Bind-ed an inproc
// endpoint: it must be able to hand a freshly connecting peer its half
// of a new pipe pair.
type Binder interface {
	AttachInprocPeer(p *libpipe.Pipe)
}

// inprocRegistry maps inproc:// endpoint names to the socket currently
// bound there. It is guarded by a plain mutex rather than sync.Map:
// binds/connects are rare compared to message traffic, so a mutex's
// simplicity wins over sync.Map's write-heavy-optimized but
// read-mostly-assuming semantics.
type inprocRegistry struct {
	mu    sync.Mutex
	binds map[string]Binder
}

func newInprocRegistry() *inprocRegistry {
	return &inprocRegistry{binds: make(map[string]Binder)}
}

// Bind registers binder as listening at name. It returns
// liberr.AddressInUse if another socket already bound that name.
func (r *inprocRegistry) Bind(name string, binder Binder) liberr.Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.binds[name]; exists {
		return liberr.AddressInUse.Error(nil)
	}
	r.binds[name] = binder
	return nil
}

// Unbind removes a previously registered endpoint.
func (r *inprocRegistry) Unbind(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.binds, name)
}

// Connect looks up the socket bound at name and, if found, hands it one
// endpoint of a freshly created pipe pair while returning the other to
// the caller. It returns liberr.AddressNotAvailable if nothing is
// currently bound there — an inproc connect never succeeds against a
// future bind, matching the core specification's "connect blocks or
// fails, never silently no-ops" rule.
func (r *inprocRegistry) Connect(name string, hwm uint64) (*libpipe.Pipe, liberr.Error) {
	r.mu.Lock()
	binder, ok := r.binds[name]
	r.mu.Unlock()

	if !ok {
		return nil, liberr.AddressNotAvailable.Error(nil)
	}

	local, remote := libpipe.NewPair(hwm, hwm, false)
	binder.AttachInprocPeer(remote)
	return local, nil
}
