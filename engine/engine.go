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

// Package engine defines the boundary between a Session and whatever
// drives bytes on and off a transport. Marshalling ZMTP frames onto a
// real network transport is explicitly out of scope for this module:
// Engine only describes the seam a Session talks through. Loopback
// exercises that seam without any byte encoding at all; Wire (wire.go)
// exercises it with a real line-delimited byte framing over an
// in-process stream, so a real transport engine can be plugged in later
// without touching Session or Pipe.
package engine

import (
	libmsg "github/sabouaram/zmtp/message"
)

// SessionHandle is the narrow view of a Session an Engine is allowed to
// see: hand it inbound frames, pull outbound frames, and learn about
// handshake completion/failure. It deliberately does not expose the
// Session's pipes, socket or ownership record.
type SessionHandle interface {
	// PushMsg delivers one frame read off the transport into the
	// session's read-side pipe.
	PushMsg(msg libmsg.Msg) bool

	// PullMsg asks the session for the next frame to write to the
	// transport. ok is false when there is nothing to send right now.
	PullMsg() (msg libmsg.Msg, ok bool)

	// EngineError reports a fatal transport-level failure; the session
	// reacts by tearing itself down.
	EngineError(err error)

	// HandshakeDone reports that the engine considers the connection
	// ready to carry application frames.
	HandshakeDone()
}

// Engine is implemented by whatever drives bytes on and off a
// transport for one connection. This module ships no concrete
// transport engine (see the package doc comment); Loopback below exists
// purely so the rest of the core can be exercised without one.
type Engine interface {
	// Plug attaches the engine to a session and starts it.
	Plug(session SessionHandle)

	// Terminate tears the engine down; it must not call back into the
	// session after this returns.
	Terminate()

	// RestartInput resumes reading after the session had previously
	// asked the engine to pause (e.g. while its read-side pipe was at
	// its high water mark).
	RestartInput()

	// RestartOutput resumes writing after PullMsg previously returned
	// ok==false.
	RestartOutput()

	// HasHandshakeStage reports whether this engine performs a
	// handshake before application frames may flow (true for a real
	// ZMTP transport engine, false for Loopback).
	HasHandshakeStage() bool
}

// Loopback is an Engine that hands frames directly back to its own
// session without touching any transport, input equals output. It
// exists to exercise a Session's plug/terminate lifecycle and its
// pipe wiring in tests, standing in for a real transport engine.
type Loopback struct {
	session SessionHandle
	done    bool
}

// NewLoopback returns an unplugged Loopback engine.
func NewLoopback() *Loopback { return &Loopback{} }

func (l *Loopback) Plug(session SessionHandle) {
	l.session = session
	l.session.HandshakeDone()
}

func (l *Loopback) Terminate() {
	l.done = true
}

func (l *Loopback) RestartInput() {
	if l.done || l.session == nil {
		return
	}
	for {
		msg, ok := l.session.PullMsg()
		if !ok {
			return
		}
		if !l.session.PushMsg(msg) {
			return
		}
	}
}

func (l *Loopback) RestartOutput() {
	l.RestartInput()
}

func (l *Loopback) HasHandshakeStage() bool { return false }
