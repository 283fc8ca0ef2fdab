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

package socket

import (
	"time"

	libcmd "github/sabouaram/zmtp/command"
	liboption "github/sabouaram/zmtp/option"
	liberr "github/sabouaram/zmtp/errors"
	libmsg "github/sabouaram/zmtp/message"
	libpipe "github/sabouaram/zmtp/pipe"
)

// Pair is a one-to-one socket: at most one pipe may be attached at a
// time, matching the core specification's exclusivity rule. A second
// Attach while one is already active replaces it, the same behaviour
// libzmq documents for a Pair peer reconnecting.
type Pair struct {
	Base

	pipe *libpipe.Pipe
}

// NewPair constructs an unattached Pair socket owned by parent.
func NewPair(parent libcmd.Receiver) *Pair {
	s := &Pair{}
	s.Base.Init(s, parent, liboption.PatternPair)
	return s
}

func (s *Pair) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackPipe(p)
	s.pipe = p
	s.fq.Attach(p)
	s.lb.Attach(p)
}

func (s *Pair) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.untrackPipe(p)
	if s.pipe == p {
		s.pipe = nil
	}
	s.fq.Detach(p)
	s.lb.Detach(p)
}

func (s *Pair) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.Send(msg)
}

func (s *Pair) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fq.Recv()
}

func (s *Pair) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.Term:
		s.Terminate(cmd.Linger)
	}
}

func (s *Pair) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// must is a tiny helper a few pattern sockets use to surface a
// liberr.Error from a bool-returning routing call without every pattern
// re-deriving the same wrapping.
func must(ok bool, code liberr.CodeError) liberr.Error {
	if ok {
		return nil
	}
	return code.Error(nil)
}
