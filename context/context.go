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

// Package context implements the root object of the messaging core: the
// slot table every socket and I/O thread registers into, the inproc
// endpoint registry, and the two-phase shutdown orchestration described
// by the core specification §4.1. Importers typically alias this
// package (e.g. zctx) since its name shadows the standard library's
// context package, the same convention the wider dependency stack
// already follows elsewhere in this module.
package context

import (
	"sync"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	liberr "github/sabouaram/zmtp/errors"
	liblog "github/sabouaram/zmtp/logger"
)

// reservedSlots mirrors libzmq's slot 0 (the terminator/reaper) and
// slot 1 (the first I/O thread), kept reserved so user sockets never
// collide with them even though this Go port has no fixed-size slot
// array to index into.
const reservedSlots = 2

// Sock is the narrow view of a socket the Context needs: enough to
// drive its shutdown and nothing else, so this package never imports
// package socket (which would create an import cycle, since sockets
// are constructed with a Context as their parent).
type Sock interface {
	libcmd.Receiver
	Terminate(linger time.Duration)
}

// Context is the root of one messaging core instance. The zero value is
// not usable; construct with New.
type Context struct {
	mu sync.Mutex

	sockets  map[libcmd.Receiver]Sock
	nextSlot uint64

	ioThreads int

	inproc *inprocRegistry
	reap   *reaper

	terminating bool
	terminated  chan struct{}

	blocky bool

	logger liblog.Logger
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithIOThreads sets the number of I/O threads the context's pool will
// run. The default, matching libzmq, is 1.
func WithIOThreads(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.ioThreads = n
		}
	}
}

// WithBlocky controls whether Terminate blocks until every socket has
// been explicitly closed (the default, matching ZMQ_BLOCKY) or returns
// immediately once every socket has at least begun terminating.
func WithBlocky(blocky bool) Option {
	return func(c *Context) { c.blocky = blocky }
}

// WithLogger attaches l as the one logger this Context's whole subtree
// logs through: every socket, session and pipe built on top of this
// Context picks it up via object.Own's parent-lookup in Init, so callers
// never pass a Logger to a socket constructor directly.
func WithLogger(l liblog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// New constructs a Context ready to register sockets and I/O threads.
func New(opts ...Option) *Context {
	c := &Context{
		sockets:    make(map[libcmd.Receiver]Sock),
		nextSlot:   reservedSlots,
		ioThreads:  1,
		inproc:     newInprocRegistry(),
		terminated: make(chan struct{}),
		blocky:     true,
	}
	c.reap = newReaper(func() {})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reaper exposes slot 0's command receiver, for a socket's Close() path
// to hand itself off (Reap) instead of blocking the caller on its own
// linger.
func (c *Context) Reaper() libcmd.Receiver { return c.reap }

// Logger returns the Logger this Context was constructed with, or nil.
// Sockets constructed with this Context as their parent adopt it
// automatically; see object.Own.Init.
func (c *Context) Logger() liblog.Logger { return c.logger }

// IOThreads reports the configured size of the I/O thread pool.
func (c *Context) IOThreads() int { return c.ioThreads }

// RegisterSocket assigns sock the next available slot and tracks it for
// shutdown. It returns liberr.Terminated if the context is already
// shutting down, refusing new sockets exactly as ZMQ_ETERM does.
func (c *Context) RegisterSocket(sock Sock) liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminating {
		return liberr.Terminated.Error(nil)
	}

	c.sockets[sock] = sock
	c.nextSlot++
	return nil
}

// UnregisterSocket drops sock from the tracked set once it has fully
// unwound (its TermAck reached the context). If this was the last
// tracked socket and Terminate is waiting, the wait is released.
func (c *Context) UnregisterSocket(sock Sock) {
	c.mu.Lock()
	delete(c.sockets, sock)
	empty := len(c.sockets) == 0
	terminating := c.terminating
	c.mu.Unlock()

	if terminating && empty {
		close(c.terminated)
	}
}

// InprocRegistry returns the endpoint registry used by Bind/Connect for
// inproc:// transports, matching the core specification's requirement
// that an inproc connect block or fail, never silently succeed, against
// a nonexistent endpoint.
func (c *Context) InprocRegistry() *inprocRegistry { return c.inproc }

// Terminate begins shutting down every registered socket with linger
// and, when the context was constructed with WithBlocky(true) (the
// default), blocks until all of them have fully unwound. Calling
// Terminate a second time is a no-op.
func (c *Context) Terminate(linger time.Duration) {
	c.mu.Lock()
	if c.terminating {
		c.mu.Unlock()
		return
	}
	c.terminating = true

	if c.logger != nil {
		c.logger.Info("context termination started, linger=%s", nil, linger.String())
	}

	socks := make([]Sock, 0, len(c.sockets))
	for _, s := range c.sockets {
		socks = append(socks, s)
	}
	empty := len(socks) == 0
	c.mu.Unlock()

	if empty {
		close(c.terminated)
	}

	for _, s := range socks {
		s.Terminate(linger)
	}

	if c.blocky {
		<-c.terminated
	}
}

// Terminating reports whether Terminate has been called.
func (c *Context) Terminating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminating
}
