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

package mailbox

import (
	"os"
	"sync/atomic"
	"time"
)

// signaler is a bidirectional, byte-sized wakeup channel. A mailbox uses
// one to let its owning thread's event loop await "new command" alongside
// real network file descriptors, via the pair of *os.File returned by FDs.
//
// Multiple pending Send calls coalesce into at most one pending byte: the
// reader drains with Wait and is expected to then drain the command queue
// to empty before re-arming, exactly as the core specification describes.
type signaler struct {
	r *os.File
	w *os.File

	// armed is true while a wakeup byte is in flight but not yet
	// consumed; it lets Send skip the write syscall when a wakeup is
	// already pending, which is the coalescing behaviour.
	armed atomic.Bool
}

func newSignaler() (*signaler, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	return &signaler{r: r, w: w}, nil
}

// Send posts one wakeup byte, unless one is already pending.
func (s *signaler) Send() {
	if s.armed.CompareAndSwap(false, true) {
		_, _ = s.w.Write([]byte{0})
	}
}

// Wait blocks until a wakeup byte arrives or the timeout elapses. A
// negative timeout waits forever; a zero timeout polls without blocking.
func (s *signaler) Wait(timeout time.Duration) bool {
	if timeout >= 0 {
		_ = s.r.SetReadDeadline(time.Now().Add(timeout))
		defer s.r.SetReadDeadline(time.Time{}) // nolint:errcheck
	} else {
		_ = s.r.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, 1)
	n, err := s.r.Read(buf)

	s.armed.Store(false)

	return n > 0 && err == nil
}

// FD returns the read side of the signaler, suitable for use in an
// external poller (select/poll/epoll) alongside network sockets. This is
// the file descriptor surfaced by the ZMQ_FD socket option at the socket
// layer (see the external interfaces section of the core specification).
func (s *signaler) FD() *os.File {
	return s.r
}

// Reinit recreates the underlying pipe pair. A forked child process must
// call this before using a mailbox it inherited, since the parent and
// child otherwise share (and corrupt) the same pipe.
func (s *signaler) Reinit() error {
	_ = s.r.Close()
	_ = s.w.Close()

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	s.r = r
	s.w = w
	s.armed.Store(false)

	return nil
}

func (s *signaler) Close() error {
	_ = s.r.Close()
	return s.w.Close()
}
