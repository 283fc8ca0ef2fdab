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

package pipe

import (
	"sync"

	libmsg "github/sabouaram/zmtp/message"
)

// chunkSize is the number of frames batched per allocation. Matching the
// core specification's "chunked" queue guidance keeps allocation
// amortised without requiring a lock-free design; a plain mutex is
// enough here since Go goroutines, unlike libzmq's OS threads, are cheap
// to block.
const chunkSize = 256

// ypipe is a single-producer/single-consumer queue of frames, one per
// pipe endpoint's outbound direction. It tracks a separate "read cursor"
// (w) from the "visible to reader" cursor (c): Write appends past w,
// Flush advances c to w, and Pop/Peek only ever see up to c. This is the
// queue half of the core specification's pipe design; credit accounting
// lives one level up, in Pipe.
type ypipe struct {
	mu sync.Mutex

	buf []libmsg.Msg // frames written, not yet flushed
	vis []libmsg.Msg // frames flushed, visible to the reader

	conflate    bool
	conflateMsg libmsg.Msg
	hasConflate bool
}

func newYpipe(conflate bool) *ypipe {
	return &ypipe{
		buf:      make([]libmsg.Msg, 0, chunkSize),
		vis:      make([]libmsg.Msg, 0, chunkSize),
		conflate: conflate,
	}
}

// write appends one frame to the write-only half of the queue. It is
// never visible to a reader until flush runs.
func (y *ypipe) write(msg libmsg.Msg) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.conflate {
		y.conflateMsg = msg
		y.hasConflate = true
		return
	}

	y.buf = append(y.buf, msg)
}

// flush moves every written-but-not-visible frame into the visible
// half, returning true if the queue was empty from the reader's
// perspective beforehand (the caller uses this to decide whether an
// ActivateRead notification is actually needed).
func (y *ypipe) flush() (wasEmpty bool) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.conflate {
		wasEmpty = !y.hasConflate || len(y.vis) == 0
		if y.hasConflate {
			if len(y.vis) == 0 {
				y.vis = append(y.vis, y.conflateMsg)
			} else {
				y.vis[0] = y.conflateMsg
			}
			y.hasConflate = false
		}
		return wasEmpty
	}

	wasEmpty = len(y.vis) == 0
	if len(y.buf) > 0 {
		y.vis = append(y.vis, y.buf...)
		y.buf = y.buf[:0]
	}
	return wasEmpty
}

// pop removes and returns the oldest visible frame.
func (y *ypipe) pop() (libmsg.Msg, bool) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if len(y.vis) == 0 {
		return libmsg.Msg{}, false
	}

	msg := y.vis[0]
	y.vis = y.vis[1:]
	return msg, true
}

// peek reports whether at least one visible frame is available, without
// removing it.
func (y *ypipe) peek() bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	return len(y.vis) > 0
}

// checkWrite reports whether the write-only half still has unflushed
// frames waiting (used by Pipe.CheckWrite's "dirty" fast path).
func (y *ypipe) pendingWrite() bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	return len(y.buf) > 0 || y.hasConflate
}

// discardPending drops every written-but-not-yet-flushed frame without
// ever making it visible to the reader, the linger=0 half of
// Pipe.Terminate: frames already flushed into vis were "sent" and are
// drained regardless of linger, but anything still sitting in buf was
// never handed to the peer and linger=0 means it never will be.
func (y *ypipe) discardPending() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.buf = y.buf[:0]
	y.hasConflate = false
}
