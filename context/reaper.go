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
	"time"

	libcmd "github/sabouaram/zmtp/command"
)

// reaper owns slot 0: every socket the user has explicitly Close-d, but
// which may still be lingering unsent frames to a peer, is handed here
// instead of being destroyed synchronously on Close. This is what lets
// Socket.Close() return immediately while a Push socket with pending
// linger still flushes in the background, per the core specification's
// reaper note.
type reaper struct {
	mu      sync.Mutex
	pending map[Sock]struct{}

	notifyEmpty func()
}

func newReaper(notifyEmpty func()) *reaper {
	return &reaper{pending: make(map[Sock]struct{}), notifyEmpty: notifyEmpty}
}

// RecvCommand implements command.Receiver: Reap hands over a closed
// socket, Reaped (posted by the socket itself once its TermAck chain
// completes) removes it from the pending set.
func (r *reaper) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.Reap:
		sock, ok := cmd.Extra.(Sock)
		if !ok {
			return
		}
		r.mu.Lock()
		r.pending[sock] = struct{}{}
		r.mu.Unlock()
		sock.Terminate(cmd.Linger)
	case libcmd.Reaped:
		sock, ok := cmd.Extra.(Sock)
		if !ok {
			return
		}
		r.mu.Lock()
		delete(r.pending, sock)
		empty := len(r.pending) == 0
		r.mu.Unlock()
		if empty && r.notifyEmpty != nil {
			r.notifyEmpty()
		}
	}
}

// Count reports how many sockets are still lingering, for diagnostics
// and tests.
func (r *reaper) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// reapWithTimeout is a small helper a Context.Terminate can use to cap
// how long it waits on a single lingering socket, so one wedged peer
// cannot hang the whole process down forever even with an infinite
// linger configured.
func reapWithTimeout(sock Sock, linger time.Duration, cap time.Duration) {
	if linger < 0 || linger > cap {
		linger = cap
	}
	sock.Terminate(linger)
}
