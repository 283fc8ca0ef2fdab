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

// Package object implements the ownership tree shared by every object in
// the messaging core (pipes, sessions, sockets, I/O threads, the
// context). It is the authoritative deallocation order for a cyclic
// object graph: nothing is freed on last-reference-drop, only via the
// seqnum/term-ack protocol described by the core specification §4.7.
package object

import (
	"sync"
	"sync/atomic"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	liblog "github/sabouaram/zmtp/logger"
)

// logged is implemented by a parent that carries a Logger (the Context,
// or any other Own down the tree, since Own itself implements Logger()
// below). Init uses it to propagate one Logger from the root of the
// ownership tree to every object without threading a parameter through
// every constructor in the module.
type logged interface {
	Logger() liblog.Logger
}

// Hooks lets the concrete object (Pipe, Session, Socket, IOThread, ...)
// plug its own behaviour into the two moments Own cannot know about by
// itself: how to actually tell a child to terminate, and what to do once
// this object has fully unwound.
type Hooks interface {
	// SendTerm delivers a Term command (carrying linger) to one child.
	SendTerm(child libcmd.Receiver, linger time.Duration)

	// SendTermAck delivers a TermAck command to the parent.
	SendTermAck(parent libcmd.Receiver)

	// Finalize runs once, exactly when check_term_acks fires
	// destruction: release any resource the concrete object still
	// holds (close a pipe's queues, stop a goroutine, ...).
	Finalize()
}

// Own is the ownership record embedded by every object that participates
// in the tree. It is not safe to copy after first use.
type Own struct {
	mu sync.Mutex

	parent   libcmd.Receiver
	children map[libcmd.Receiver]struct{}

	// sentSeqnum/processedSeqnum are kept as two independent counters,
	// per original_source/src/own.rs, rather than collapsed into one
	// pair: this lets CheckTermAcks compare them without taking mu.
	sentSeqnum      atomic.Uint64
	processedSeqnum atomic.Uint64

	terminating atomic.Bool
	pendingAcks atomic.Int64
	fired       atomic.Bool

	self  libcmd.Receiver
	hooks Hooks

	logger liblog.Logger
}

// Init must be called once, by the concrete object's constructor, with a
// reference to itself (for parent/child bookkeeping) and its Hooks. If
// parent carries a Logger (directly, or by embedding its own Own), it is
// adopted here so every object below the root logs through the same
// instance.
func (o *Own) Init(self libcmd.Receiver, parent libcmd.Receiver, hooks Hooks) {
	o.self = self
	o.parent = parent
	o.hooks = hooks
	o.children = make(map[libcmd.Receiver]struct{})

	if lp, ok := parent.(logged); ok {
		o.logger = lp.Logger()
	}
}

// Logger returns the Logger adopted from the ownership tree's root, or
// nil if the Context this object descends from was never given one.
func (o *Own) Logger() liblog.Logger { return o.logger }

// Parent returns the owning object, or nil for the root (the context).
func (o *Own) Parent() libcmd.Receiver {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.parent
}

// PlugChild registers child as a new member of this object's subtree.
// Every call bumps SentSeqnum so a plug racing with shutdown is still
// observed by CheckTermAcks.
func (o *Own) PlugChild(child libcmd.Receiver) {
	o.Bump()

	o.mu.Lock()
	o.children[child] = struct{}{}
	o.mu.Unlock()

	o.Processed()
}

// Bump increments the sent-seqnum counter. Callers invoke it once per
// command sent to this object's own mailbox, immediately before the send,
// so processedSeqnum can never overtake sentSeqnum.
func (o *Own) Bump() uint64 {
	return o.sentSeqnum.Add(1)
}

// Processed increments the processed-seqnum counter. Callers invoke it
// once a queued command has actually run.
func (o *Own) Processed() uint64 {
	return o.processedSeqnum.Add(1)
}

// Terminating reports whether process_term has already run for this
// object.
func (o *Own) Terminating() bool {
	return o.terminating.Load()
}

// ProcessTerm runs the two-phase termination algorithm described in
// core specification §4.7 step 2: send Term{linger} to every child,
// register one pending ack per child, flip terminating, then check
// whether destruction can fire immediately (an object with no children
// and no commands in flight destroys itself synchronously).
func (o *Own) ProcessTerm(linger time.Duration) {
	if !o.terminating.CompareAndSwap(false, true) {
		return
	}

	if o.logger != nil {
		o.logger.Debug("object termination started", nil)
	}

	o.mu.Lock()
	children := make([]libcmd.Receiver, 0, len(o.children))
	for c := range o.children {
		children = append(children, c)
	}
	o.mu.Unlock()

	o.pendingAcks.Add(int64(len(children)))

	for _, c := range children {
		o.hooks.SendTerm(c, linger)
	}

	o.CheckTermAcks()
}

// ProcessTermAck records that one child has fully unwound.
func (o *Own) ProcessTermAck(child libcmd.Receiver) {
	o.mu.Lock()
	delete(o.children, child)
	o.mu.Unlock()

	o.pendingAcks.Add(-1)
	o.CheckTermAcks()
}

// CheckTermAcks is the authoritative destruction test from core
// specification §4.7 step 5: terminating && processed == sent && 0
// pending acks. Because sentSeqnum/processedSeqnum are checked alongside
// the ack count, a command in flight from a child to this object at the
// moment of termination cannot escape the wait — processedSeqnum lags
// sentSeqnum until that command is actually processed.
func (o *Own) CheckTermAcks() {
	if !o.terminating.Load() {
		return
	}

	if o.pendingAcks.Load() != 0 {
		return
	}

	if o.processedSeqnum.Load() != o.sentSeqnum.Load() {
		return
	}

	// fire exactly once: CompareAndSwap a guard so a racing duplicate
	// call (ProcessTermAck and a late-processed command both landing
	// here) cannot finalize twice.
	if !o.fired.CompareAndSwap(false, true) {
		return
	}

	if o.logger != nil {
		o.logger.Debug("object termination finalized", nil)
	}

	o.hooks.Finalize()

	if o.parent != nil {
		o.hooks.SendTermAck(o.parent)
	}
}
