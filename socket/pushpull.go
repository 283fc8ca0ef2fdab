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
	libmsg "github/sabouaram/zmtp/message"
	libpipe "github/sabouaram/zmtp/pipe"
)

// Push load-balances sends across every attached pipe and never reads.
type Push struct {
	Base
}

// NewPush constructs an unattached Push socket owned by parent.
func NewPush(parent libcmd.Receiver) *Push {
	s := &Push{}
	s.Base.Init(s, parent, liboption.PatternPush)
	return s
}

func (s *Push) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.lb.Attach(p)
}

func (s *Push) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.lb.Detach(p)
}

func (s *Push) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.Send(msg)
}

func (s *Push) Recv() (libmsg.Msg, bool) { return libmsg.Msg{}, false }

func (s *Push) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Push) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// Pull fair-queues reads across every attached pipe and never sends.
type Pull struct {
	Base
}

// NewPull constructs an unattached Pull socket owned by parent.
func NewPull(parent libcmd.Receiver) *Pull {
	s := &Pull{}
	s.Base.Init(s, parent, liboption.PatternPull)
	return s
}

func (s *Pull) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.fq.Attach(p)
}

func (s *Pull) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
}

func (s *Pull) Send(_ libmsg.Msg) bool { return false }

func (s *Pull) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fq.Recv()
}

func (s *Pull) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Pull) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}
