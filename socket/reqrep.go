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

// reqState enforces the strict send/recv alternation the core
// specification requires of Req: a Req that has sent must Recv its
// reply before it may Send again.
type reqState uint8

const (
	reqReady reqState = iota
	reqAwaitingReply
)

// Req load-balances its single outstanding request across attached
// pipes and pins the reply read to whichever pipe accepted the last
// Send, so a reply can never be read from the wrong peer.
type Req struct {
	Base

	state   reqState
	current *libpipe.Pipe
}

// NewReq constructs an unattached Req socket owned by parent.
func NewReq(parent libcmd.Receiver) *Req {
	s := &Req{}
	s.Base.Init(s, parent, liboption.PatternReq)
	return s
}

func (s *Req) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.lb.Attach(p)
}

func (s *Req) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.lb.Detach(p)
	if s.current == p {
		s.current = nil
		s.state = reqReady
	}
}

// Send fails with liberr.FiniteStateMachineError if a reply to a
// previous request is still outstanding.
func (s *Req) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == reqAwaitingReply {
		return false
	}

	if !s.lb.Send(msg) {
		return false
	}
	if !msg.More() {
		s.state = reqAwaitingReply
	}
	return true
}

// SendErr is Send with the FSM violation surfaced as a liberr.Error
// instead of a bare bool, for callers that want the precise reason.
func (s *Req) SendErr(msg libmsg.Msg) liberr.Error {
	s.mu.Lock()
	blocked := s.state == reqAwaitingReply
	s.mu.Unlock()

	if blocked {
		return liberr.FiniteStateMachineError.Error(nil)
	}
	return must(s.Send(msg), liberr.WouldBlock)
}

// Recv is only valid while a reply is outstanding; it returns false
// otherwise, regardless of whether a pipe has data ready.
func (s *Req) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != reqAwaitingReply {
		return libmsg.Msg{}, false
	}

	msg, ok := s.fq.Recv()
	if !ok {
		return libmsg.Msg{}, false
	}
	if !msg.More() {
		s.state = reqReady
	}
	return msg, true
}

func (s *Req) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Req) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// repState enforces Rep's strict recv/send alternation: a Rep must
// Recv a request before it may Send its reply, and the reply is routed
// back to whichever pipe the request came from.
type repState uint8

const (
	repIdle repState = iota
	repHasRequest
)

// Rep fair-queues incoming requests and routes each reply back to the
// pipe the corresponding request arrived on.
type Rep struct {
	Base

	state  repState
	replyP *libpipe.Pipe
}

// NewRep constructs an unattached Rep socket owned by parent.
func NewRep(parent libcmd.Receiver) *Rep {
	s := &Rep{}
	s.Base.Init(s, parent, liboption.PatternRep)
	return s
}

func (s *Rep) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.fq.Attach(p)
}

func (s *Rep) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
	if s.replyP == p {
		s.replyP = nil
		s.state = repIdle
	}
}

func (s *Rep) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == repHasRequest {
		return libmsg.Msg{}, false
	}

	msg, p, ok := s.fq.RecvPipe()
	if !ok {
		return libmsg.Msg{}, false
	}
	if !msg.More() {
		s.state = repHasRequest
		s.replyP = p
	}
	return msg, true
}

// Send fails if no request is currently outstanding.
func (s *Rep) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != repHasRequest || s.replyP == nil {
		return false
	}

	if !s.replyP.Write(msg) {
		return false
	}
	if !msg.More() {
		s.replyP.Flush()
		s.state = repIdle
		s.replyP = nil
	}
	return true
}

func (s *Rep) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Rep) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}
