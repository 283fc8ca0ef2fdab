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

// Package fq implements fair-queued reading across a socket's attached
// pipes: Pull, Router, Sub and XSub all read one full logical message at
// a time from whichever attached pipe is next in round-robin order that
// actually has one ready, so no single fast peer can starve the others.
package fq

import (
	libmsg "github/sabouaram/zmtp/message"
	libpipe "github/sabouaram/zmtp/pipe"
)

// FairQueue rotates a read cursor across a set of pipes. Not safe for
// concurrent use; callers serialize access the same way a socket
// serializes its own recv path.
type FairQueue struct {
	pipes  []*libpipe.Pipe
	cursor int

	// active marks a pipe that must be drained to the end of its
	// current logical message (all More-flagged frames) before the
	// cursor is allowed to move on, preserving message boundaries.
	active   *libpipe.Pipe
	activeMF bool
}

// Attach adds p to the rotation.
func (q *FairQueue) Attach(p *libpipe.Pipe) {
	q.pipes = append(q.pipes, p)
}

// Detach removes p from the rotation, e.g. once its Terminated callback
// has fired.
func (q *FairQueue) Detach(p *libpipe.Pipe) {
	for i, cur := range q.pipes {
		if cur != p {
			continue
		}
		q.pipes = append(q.pipes[:i], q.pipes[i+1:]...)
		if q.cursor > i {
			q.cursor--
		}
		if q.active == p {
			q.active = nil
			q.activeMF = false
		}
		return
	}
}

// Empty reports whether no pipe is currently attached.
func (q *FairQueue) Empty() bool { return len(q.pipes) == 0 }

// HasIn reports whether at least one attached pipe has a frame ready,
// without consuming it; used to implement a socket's readiness polling
// (e.g. ZMQ_EVENTS / ZMQ_POLLIN equivalents).
func (q *FairQueue) HasIn() bool {
	if q.active != nil {
		return q.active.CheckRead()
	}
	for _, p := range q.pipes {
		if p.CheckRead() {
			return true
		}
	}
	return false
}

// RecvPipe dequeues the next frame in round-robin order, along with the
// pipe it came from (Router needs this to prepend the routing id). It
// returns false when every attached pipe is currently empty.
func (q *FairQueue) RecvPipe() (libmsg.Msg, *libpipe.Pipe, bool) {
	if q.active != nil {
		p := q.active
		if msg, ok := p.Read(); ok {
			if !msg.More() {
				q.active = nil
				q.activeMF = false
			}
			return msg, p, true
		}
		// the pipe that owned the in-flight message went dry without
		// sending the final frame (peer died mid-message); fall
		// through to normal rotation rather than wedge forever.
		q.active = nil
		q.activeMF = false
	}

	n := len(q.pipes)
	for i := 0; i < n; i++ {
		idx := (q.cursor + i) % n
		p := q.pipes[idx]

		msg, ok := p.Read()
		if !ok {
			continue
		}

		q.cursor = (idx + 1) % n
		if msg.More() {
			q.active = p
			q.activeMF = true
		}
		return msg, p, true
	}

	return libmsg.Msg{}, nil, false
}

// Recv is RecvPipe without the source pipe, for sockets that do not need
// to know which peer a frame arrived from.
func (q *FairQueue) Recv() (libmsg.Msg, bool) {
	msg, _, ok := q.RecvPipe()
	return msg, ok
}
