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

// Package command defines the tagged cross-thread messages that move
// between mailboxes in the messaging core. Every object that participates
// in the ownership tree (pipes, sessions, sockets, I/O threads, the reaper,
// the context) receives its instructions exclusively through a Command;
// there is no other channel for one goroutine to drive another's state.
package command

import (
	"time"
)

// Kind tags the variant of a Command. Dispatch on the receiving side is a
// single switch over Kind, never a type hierarchy.
type Kind uint8

const (
	// Stop unblocks any in-flight user call on a socket and starts its
	// shutdown sequence.
	Stop Kind = iota

	// Plug attaches a session to the I/O thread and engine that will
	// drive it.
	Plug

	// Own registers a new child with its parent's ownership record.
	Own

	// Attach hands a newly created pipe endpoint to a socket.
	Attach

	// Bind registers an endpoint URI against a socket in the context's
	// inproc registry.
	Bind

	// ActivateRead tells a pipe reader that new frames became visible
	// after a flush.
	ActivateRead

	// ActivateWrite grants write credit back to a pipe writer once the
	// reader has crossed the low-water mark.
	ActivateWrite

	// Hiccup rebinds a pipe endpoint's peer reference after a
	// reconnection replaced the other side.
	Hiccup

	// PipeTerm is posted by a pipe reader once it has consumed the
	// peer's delimiter frame.
	PipeTerm

	// PipeTermAck is posted by the termination initiator once it has
	// observed the peer's own delimiter.
	PipeTermAck

	// PipeHwm pushes a peer's configured high/low water marks across the
	// pipe so both ends agree on flow-control thresholds.
	PipeHwm

	// TermReq asks a parent to begin terminating a specific child.
	TermReq

	// Term asks an object to begin its own two-phase shutdown with the
	// given linger.
	Term

	// TermAck reports that a child has fully unwound and may be
	// removed from its parent's pending-ack count.
	TermAck

	// TermEndpoint asks the context to unregister a single bound
	// endpoint URI without tearing down the whole socket.
	TermEndpoint

	// Reap hands a closed socket to the reaper thread.
	Reap

	// Reaped confirms the reaper has fully destroyed a socket.
	Reaped

	// InprocConnected confirms a pending inproc connect found its
	// matching bind and was wired directly.
	InprocConnected

	// ConnFailed reports that a connection attempt could not be
	// completed.
	ConnFailed

	// PipePeerStats carries a peer's queue depth for monitor events.
	PipePeerStats

	// PipeStatsPublish asks a pipe to emit its current counters to the
	// monitor socket.
	PipeStatsPublish

	// Done is posted to the terminator goroutine once the context root
	// has fully unwound, unblocking Context.Terminate.
	Done
)

//go:generate stringer -type=Kind

func (k Kind) String() string {
	switch k {
	case Stop:
		return "Stop"
	case Plug:
		return "Plug"
	case Own:
		return "Own"
	case Attach:
		return "Attach"
	case Bind:
		return "Bind"
	case ActivateRead:
		return "ActivateRead"
	case ActivateWrite:
		return "ActivateWrite"
	case Hiccup:
		return "Hiccup"
	case PipeTerm:
		return "PipeTerm"
	case PipeTermAck:
		return "PipeTermAck"
	case PipeHwm:
		return "PipeHwm"
	case TermReq:
		return "TermReq"
	case Term:
		return "Term"
	case TermAck:
		return "TermAck"
	case TermEndpoint:
		return "TermEndpoint"
	case Reap:
		return "Reap"
	case Reaped:
		return "Reaped"
	case InprocConnected:
		return "InprocConnected"
	case ConnFailed:
		return "ConnFailed"
	case PipePeerStats:
		return "PipePeerStats"
	case PipeStatsPublish:
		return "PipeStatsPublish"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Receiver is implemented by every object that can be the target of a
// Command: pipes, sessions, sockets, I/O threads, the reaper and the
// context root. Dispatch never inspects concrete types beyond this.
type Receiver interface {
	// RecvCommand processes one command synchronously, on the calling
	// goroutine's own event loop. Implementations must not block.
	RecvCommand(cmd Command)
}

// Command is the single tagged-union message type carried by mailboxes.
// Not every field is meaningful for every Kind; see the Kind constant
// doc-comments above for which fields each variant uses.
type Command struct {
	// Kind selects which fields below are meaningful.
	Kind Kind

	// Seqnum is the sender-assigned, per-(sender,receiver) monotonic
	// sequence number used by the ownership/shutdown protocol to
	// detect commands still in flight.
	Seqnum uint64

	// Target is the object that should process this command. Routing
	// to the right mailbox happens one level up (by thread id); Target
	// lets that thread's event loop dispatch to the right object once
	// the command is dequeued.
	Target Receiver

	// Linger is used by Term.
	Linger time.Duration

	// Count is used by ActivateWrite (msgs_read) and PipeHwm (in-hwm).
	Count uint64

	// CountOut is used by PipeHwm (out-hwm) and PipePeerStats.
	CountOut uint64

	// URI is used by Bind/TermEndpoint/ConnFailed.
	URI string

	// Err carries the failure reason for ConnFailed.
	Err error

	// Extra is the escape hatch for payloads that do not fit the common
	// fields above: the replacement pipe for Hiccup, the new child for
	// Own/Attach/Plug/Reap, etc. Receivers type-assert it to the
	// concrete type their Kind expects.
	Extra any
}
