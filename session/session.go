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

// Package session implements the glue object between one pipe endpoint
// (facing a socket) and one Engine (facing a transport, out of this
// module's scope). A Session has no behaviour of its own beyond
// plumbing and the handshake-gated buffering variants described by the
// core specification for Req, Radio and Dish; sockets that need
// anything fancier build it on top of a plain Session.
package session

import (
	"time"

	libcmd "github/sabouaram/zmtp/command"
	libeng "github/sabouaram/zmtp/engine"
	libmsg "github/sabouaram/zmtp/message"
	libobj "github/sabouaram/zmtp/object"
	libpipe "github/sabouaram/zmtp/pipe"
)

// stage tracks handshake progress for engines that report
// HasHandshakeStage() true; frames pulled from the socket-facing pipe
// before the handshake completes are queued rather than handed to
// PullMsg, so an engine is never asked to send application data before
// it is ready.
type stage uint8

const (
	stagePending stage = iota
	stageReady
)

// Session bridges a pipe and an Engine. Embeds object.Own so it
// participates in the ownership tree's shutdown protocol like every
// other object.
type Session struct {
	libobj.Own

	pipe *libpipe.Pipe
	eng  libeng.Engine

	zap *libpipe.Pipe // lazily attached second pipe for ZAP authentication

	st      stage
	pending []libmsg.Msg

	linger time.Duration
}

// New creates a Session over pipe, owned by parent, not yet plugged to
// an engine.
func New(pipe *libpipe.Pipe, parent libcmd.Receiver) *Session {
	s := &Session{pipe: pipe, st: stageReady}
	s.Own.Init(s, parent, s)
	pipe.SetHandler(s)
	if l := s.Logger(); l != nil {
		pipe.SetLogger(l)
	}
	return s
}

// SendTerm implements object.Hooks: deliver Term to a child (the ZAP
// pipe's owning object, if any children are ever registered beyond it).
func (s *Session) SendTerm(child libcmd.Receiver, linger time.Duration) {
	child.RecvCommand(libcmd.Command{Kind: libcmd.Term, Linger: linger})
}

// SendTermAck implements object.Hooks: report this session's own
// unwinding to its parent socket.
func (s *Session) SendTermAck(parent libcmd.Receiver) {
	parent.RecvCommand(libcmd.Command{Kind: libcmd.TermAck, Target: s})
}

// Finalize implements object.Hooks: nothing further to release once the
// pipe and engine have already torn themselves down in Terminate.
func (s *Session) Finalize() {}

// Plug attaches eng and starts it. If eng reports a handshake stage,
// outbound frames are queued until HandshakeDone fires.
func (s *Session) Plug(eng libeng.Engine) {
	s.eng = eng
	if eng.HasHandshakeStage() {
		s.st = stagePending
	}
	eng.Plug(s)
}

// AttachZap installs the lazily created second pipe used to consult a
// ZAP handler before admitting a peer, per the core specification's ZAP
// coupling note. A Session with no zap pipe skips authentication
// entirely, matching a context with no ZAP handler registered.
func (s *Session) AttachZap(zap *libpipe.Pipe) {
	s.zap = zap
}

// PushMsg implements engine.SessionHandle: hand one inbound frame to the
// socket-facing pipe.
func (s *Session) PushMsg(msg libmsg.Msg) bool {
	if !s.pipe.Write(msg) {
		return false
	}
	if !msg.More() {
		s.pipe.Flush()
	}
	return true
}

// PullMsg implements engine.SessionHandle: fetch the next frame to hand
// to the engine. Before the handshake completes, frames are buffered
// locally instead of being handed out.
func (s *Session) PullMsg() (libmsg.Msg, bool) {
	if s.st == stagePending {
		if msg, ok := s.pipe.Read(); ok {
			s.pending = append(s.pending, msg)
		}
		return libmsg.Msg{}, false
	}

	if len(s.pending) > 0 {
		msg := s.pending[0]
		s.pending = s.pending[1:]
		return msg, true
	}

	return s.pipe.Read()
}

// EngineError implements engine.SessionHandle: a transport failure
// starts this session's own termination.
func (s *Session) EngineError(err error) {
	if l := s.Logger(); l != nil {
		l.Warning("session engine reported a fatal error: %s", nil, err)
	}
	s.Terminate(0)
}

// HandshakeDone implements engine.SessionHandle: release any frames
// buffered while the handshake was pending.
func (s *Session) HandshakeDone() {
	s.st = stageReady
}

// ReadActivated implements pipe.Handler: new frames are ready to be
// pulled toward the engine.
func (s *Session) ReadActivated(_ *libpipe.Pipe) {
	if s.eng != nil {
		s.eng.RestartOutput()
	}
}

// WriteActivated implements pipe.Handler: the socket-facing pipe
// regained write credit; nothing to relay, the next PushMsg will simply
// succeed.
func (s *Session) WriteActivated(_ *libpipe.Pipe) {}

// Hiccuped implements pipe.Handler: the socket side reconnected a pipe
// underneath this session; nothing session-specific needs to happen,
// subscription replay (if any) is the socket's concern.
func (s *Session) Hiccuped(_ *libpipe.Pipe) {}

// Terminated implements pipe.Handler: the socket-facing pipe fully
// unwound, so this session's engine should be torn down too.
func (s *Session) Terminated(_ *libpipe.Pipe) {
	if s.eng != nil {
		s.eng.Terminate()
	}
}

// RecvCommand implements command.Receiver for commands targeting the
// session itself (Term/TermReq from its parent socket).
func (s *Session) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.Term:
		s.Terminate(cmd.Linger)
	}
}

// Terminate begins this session's own shutdown: it tells the
// socket-facing pipe to terminate (starting the delimiter handshake)
// and runs the ownership-tree protocol for any children (the ZAP pipe,
// if attached).
func (s *Session) Terminate(linger time.Duration) {
	s.linger = linger
	s.pipe.Terminate(linger)
	if s.zap != nil {
		s.zap.Terminate(0)
	}
	s.ProcessTerm(linger)
}
