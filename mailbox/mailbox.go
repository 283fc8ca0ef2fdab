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

// Package mailbox is a thread's inbox for Commands. It is the only
// channel through which one goroutine may drive another object's state in
// the messaging core; every cross-thread interaction is a Send on some
// mailbox followed, eventually, by a Recv on the owning thread's event
// loop.
package mailbox

import (
	"os"
	"sync"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	liberr "github/sabouaram/zmtp/errors"
)

// Mailbox is implemented by both flavours described in the core
// specification: the single-reader mailbox (one consumer, FD-backed,
// lock-guarded with an uncontended mutex) and the thread-safe mailbox
// (many senders, one consumer, same queue but documented safe for
// concurrent Recv as well — used by thread-safe socket types).
type Mailbox interface {
	// Send enqueues cmd. It never blocks and never loses a command; at
	// most it coalesces the wakeup signal with an already-pending one.
	// Send on a closed mailbox is a silent no-op, mirroring a dropped
	// command to a peer that has already gone away.
	Send(cmd libcmd.Command)

	// Recv dequeues one command, blocking up to timeout. A negative
	// timeout blocks forever; a zero timeout never blocks.
	Recv(timeout time.Duration) (libcmd.Command, liberr.Error)

	// FD exposes the mailbox's pollable descriptor so the owning
	// thread's event loop can await it alongside network sockets.
	FD() *os.File

	// Close unblocks every blocked and future Recv with Terminated and
	// releases the signaler's file descriptors.
	Close()
}

type mbx struct {
	mu     sync.Mutex
	queue  []libcmd.Command
	sig    *signaler
	closed bool
}

func newBox() (*mbx, error) {
	s, err := newSignaler()
	if err != nil {
		return nil, err
	}

	return &mbx{
		queue: make([]libcmd.Command, 0, 16),
		sig:   s,
	}, nil
}

// NewSingleReader returns a mailbox intended for exclusive use by a
// single consumer goroutine, matching the "single-reader" flavour from
// the core specification.
func NewSingleReader() (Mailbox, error) {
	return newBox()
}

// NewThreadSafe returns a mailbox safe for concurrent Recv from several
// goroutines, matching the "thread-safe" flavour used by thread-safe
// socket types (Server, Client, Radio, Dish, Scatter, Gather, Peer,
// Channel).
func NewThreadSafe() (Mailbox, error) {
	return newBox()
}

func (m *mbx) Send(cmd libcmd.Command) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, cmd)
	m.mu.Unlock()

	m.sig.Send()
}

func (m *mbx) Recv(timeout time.Duration) (libcmd.Command, liberr.Error) {
	deadline := time.Now().Add(timeout)

	for {
		if cmd, ok := m.dequeue(); ok {
			return cmd, nil
		}

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return libcmd.Command{}, liberr.Terminated.Error(nil)
		}

		var wait time.Duration
		if timeout < 0 {
			wait = -1
		} else {
			wait = time.Until(deadline)
			if wait <= 0 {
				return libcmd.Command{}, liberr.WouldBlock.Error(nil)
			}
		}

		if !m.sig.Wait(wait) {
			// either a real timeout, or a spurious wakeup (e.g. the
			// deadline we set on the signaler's fd elapsed); loop
			// back and re-check the queue and the closed flag.
			if timeout >= 0 && time.Now().After(deadline) {
				return libcmd.Command{}, liberr.WouldBlock.Error(nil)
			}
		}
	}
}

func (m *mbx) dequeue() (libcmd.Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return libcmd.Command{}, false
	}

	cmd := m.queue[0]
	m.queue = m.queue[1:]
	return cmd, true
}

func (m *mbx) FD() *os.File {
	return m.sig.FD()
}

func (m *mbx) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.sig.Send()
}
