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

// Package lb implements load-balanced writing across a socket's attached
// pipes: Push and Dealer round-robin whole logical messages across
// whichever attached pipe is next in rotation with write credit
// available, skipping (never blocking behind) one that is currently at
// its high water mark.
package lb

import (
	libmsg "github/sabouaram/zmtp/message"
	libpipe "github/sabouaram/zmtp/pipe"
)

// LoadBalancer rotates a write cursor across a set of pipes. Not safe
// for concurrent use.
type LoadBalancer struct {
	pipes  []*libpipe.Pipe
	cursor int

	// active pins the rotation to the pipe currently mid-message, so a
	// logical message's frames are never split across peers.
	active *libpipe.Pipe
}

// Attach adds p to the rotation.
func (b *LoadBalancer) Attach(p *libpipe.Pipe) {
	b.pipes = append(b.pipes, p)
}

// Detach removes p from the rotation.
func (b *LoadBalancer) Detach(p *libpipe.Pipe) {
	for i, cur := range b.pipes {
		if cur != p {
			continue
		}
		b.pipes = append(b.pipes[:i], b.pipes[i+1:]...)
		if b.cursor > i {
			b.cursor--
		}
		if b.active == p {
			b.active = nil
		}
		return
	}
}

// Empty reports whether no pipe is currently attached.
func (b *LoadBalancer) Empty() bool { return len(b.pipes) == 0 }

// HasOut reports whether at least one attached pipe currently has write
// credit.
func (b *LoadBalancer) HasOut() bool {
	if b.active != nil {
		return b.active.CheckWrite()
	}
	for _, p := range b.pipes {
		if p.CheckWrite() {
			return true
		}
	}
	return false
}

// Send writes one frame to the next pipe in rotation with available
// credit, pinning the rotation to that pipe until a frame without More
// completes the logical message. It returns false if every attached pipe
// is currently at its high water mark.
func (b *LoadBalancer) Send(msg libmsg.Msg) bool {
	if b.active != nil {
		if !b.active.Write(msg) {
			return false
		}
		if !msg.More() {
			b.active.Flush()
			b.active = nil
		}
		return true
	}

	n := len(b.pipes)
	for i := 0; i < n; i++ {
		idx := (b.cursor + i) % n
		p := b.pipes[idx]

		if !p.Write(msg) {
			continue
		}

		b.cursor = (idx + 1) % n
		if msg.More() {
			b.active = p
		} else {
			p.Flush()
		}
		return true
	}

	return false
}
