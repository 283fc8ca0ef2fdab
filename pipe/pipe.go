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

// Package pipe implements the SPSC channel between a socket and its
// session on one side and a peer's session on the other: the unit of
// transport-independent, in-process message passing described by the
// core specification §4.3. A Pipe never touches a network socket; an
// engine marshals frames on and off the wire and drives a Pipe exactly
// like any other writer/reader would.
package pipe

import (
	"sync/atomic"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	liblog "github/sabouaram/zmtp/logger"
	libmsg "github/sabouaram/zmtp/message"
)

// Handler receives the four notifications a Pipe's owner must react to.
// Implementations must not block.
type Handler interface {
	// ReadActivated fires when new frames became visible after a peer
	// flush; the owner should drain with Read until it returns false.
	ReadActivated(p *Pipe)

	// WriteActivated fires when the peer granted write credit back,
	// unblocking a writer that had hit the high water mark.
	WriteActivated(p *Pipe)

	// Hiccuped fires after a reconnect rebound this endpoint onto a
	// fresh queue; PUB/SUB sockets use it to replay subscriptions.
	Hiccuped(p *Pipe)

	// Terminated fires once both the local and peer delimiter frames
	// have been observed and the pipe has fully unwound.
	Terminated(p *Pipe)
}

// state tracks where an endpoint is in the termination handshake
// described by core specification §4.3 steps 4-6.
type state uint8

const (
	stateActive state = iota
	stateTerminating
	stateTerminated
)

// Pipe is one endpoint of a pair. NewPair returns both endpoints of a
// connected pipe; each Pipe writes into its own outbound queue and reads
// from its peer's.
type Pipe struct {
	out *ypipe // frames this endpoint writes; the peer reads from it
	in  *ypipe // frames this endpoint reads; the peer writes to it

	peer *Pipe

	handler Handler

	// notify, when non-nil, is how this endpoint reaches its peer's
	// owning thread when the two live on different event loops (e.g.
	// across an I/O thread boundary). When nil, notifications are
	// delivered as direct, synchronous calls into peer.handler — the
	// common case for an inproc connection, where both endpoints share
	// no transport and therefore no cross-thread hop is needed.
	notify func(libcmd.Command)

	outHwm uint64
	inHwm  uint64
	lwm    uint64

	// credit is the number of additional frames this endpoint may still
	// write before the peer's high water mark would be exceeded.
	credit atomic.Int64

	msgsRead    atomic.Uint64
	msgsWritten atomic.Uint64

	st state

	identity string

	logger liblog.Logger
}

// SetLogger attaches the Logger this pipe's owning Session adopted from
// its Context; Session.New calls this right after constructing a
// session over a pipe so the pipe's own hiccup/terminate events log
// through the same instance as the rest of the ownership tree.
func (p *Pipe) SetLogger(l liblog.Logger) { p.logger = l }

// NewPair creates two connected Pipe endpoints with the given high water
// marks (0 means unbounded) and returns them in (a, b) order; a writes
// into the queue b reads, and vice versa.
func NewPair(hwmA, hwmB uint64, conflate bool) (a, b *Pipe) {
	qAtoB := newYpipe(conflate)
	qBtoA := newYpipe(conflate)

	a = &Pipe{out: qAtoB, in: qBtoA, outHwm: hwmB, inHwm: hwmA}
	b = &Pipe{out: qBtoA, in: qAtoB, outHwm: hwmA, inHwm: hwmB}

	a.peer = b
	b.peer = a

	a.lwm = computeLwm(a.inHwm)
	b.lwm = computeLwm(b.inHwm)

	a.credit.Store(creditFor(a.outHwm))
	b.credit.Store(creditFor(b.outHwm))

	return a, b
}

// computeLwm mirrors libzmq's default: half the high water mark, with a
// floor of 1 so a pipe with hwm==1 can still make progress. hwm==0 means
// unbounded, hence lwm==0 (never throttle).
func computeLwm(hwm uint64) uint64 {
	if hwm == 0 {
		return 0
	}
	lwm := hwm / 2
	if lwm == 0 {
		lwm = 1
	}
	return lwm
}

func creditFor(hwm uint64) int64 {
	if hwm == 0 {
		return 1<<63 - 1
	}
	return int64(hwm)
}

// SetHandler installs the notification target. Must be called before
// any frame is written or read.
func (p *Pipe) SetHandler(h Handler) { p.handler = h }

// SetNotify installs the cross-thread delivery function used when this
// endpoint's peer is driven by a different event loop. Leave nil for an
// inproc pair living on a single loop.
func (p *Pipe) SetNotify(fn func(libcmd.Command)) { p.notify = fn }

// Identity returns the routing identity associated with this endpoint
// (set by Router/Dealer at attach time); empty if none was assigned.
func (p *Pipe) Identity() string { return p.identity }

// SetIdentity assigns the routing identity.
func (p *Pipe) SetIdentity(id string) { p.identity = id }

// Write enqueues msg for the peer, consuming one unit of write credit.
// It returns false, without enqueuing, if the peer's high water mark has
// been reached — the caller (a socket's send path) must treat this as
// backpressure, exactly like the core specification's HWM behaviour.
func (p *Pipe) Write(msg libmsg.Msg) bool {
	if p.st != stateActive {
		return false
	}

	for {
		cur := p.credit.Load()
		if cur <= 0 {
			return false
		}
		if p.credit.CompareAndSwap(cur, cur-1) {
			break
		}
	}

	p.out.write(msg)
	p.msgsWritten.Add(1)
	return true
}

// Flush makes every frame written since the last Flush visible to the
// reader and, unless the queue already had visible frames, notifies the
// peer with ActivateRead.
func (p *Pipe) Flush() {
	wasEmpty := p.out.flush()
	if !wasEmpty {
		return
	}
	p.signalPeer(libcmd.Command{Kind: libcmd.ActivateRead})
}

// Read dequeues the oldest visible frame written by the peer. It
// returns false once the queue is empty (not necessarily terminated —
// call CheckRead or rely on Handler.Terminated to distinguish a drained
// queue from a closed one). Reading a delimiter frame finalizes the
// local half of the termination handshake and never surfaces the
// delimiter itself to the caller.
func (p *Pipe) Read() (libmsg.Msg, bool) {
	msg, ok := p.in.pop()
	if !ok {
		return libmsg.Msg{}, false
	}

	if msg.IsDelimiter() {
		p.onPeerDelimiter()
		return p.Read()
	}

	n := p.msgsRead.Add(1)
	p.maybeGrantCredit(n)

	return msg, true
}

// CheckRead reports whether a frame is available without dequeuing it.
func (p *Pipe) CheckRead() bool {
	return p.in.peek()
}

// CheckWrite reports whether Write would currently succeed.
func (p *Pipe) CheckWrite() bool {
	return p.st == stateActive && p.credit.Load() > 0
}

// maybeGrantCredit returns write credit to the peer once the reader has
// drained past the low water mark, the same batching the core
// specification uses to avoid a credit round-trip per single message.
func (p *Pipe) maybeGrantCredit(readCount uint64) {
	if p.lwm == 0 {
		return
	}
	if readCount%p.lwm != 0 {
		return
	}
	p.signalPeer(libcmd.Command{Kind: libcmd.ActivateWrite, Count: p.lwm})
}

func (p *Pipe) signalPeer(cmd libcmd.Command) {
	if p.notify != nil {
		cmd.Target = p.peer
		p.notify(cmd)
		return
	}
	p.peer.RecvCommand(cmd)
}

// RecvCommand implements command.Receiver: ActivateRead/ActivateWrite
// notifications arriving from a peer on a different event loop are
// dispatched here instead of via a direct call.
func (p *Pipe) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.ActivateRead:
		if p.handler != nil {
			p.handler.ReadActivated(p)
		}
	case libcmd.ActivateWrite:
		p.credit.Add(int64(cmd.Count))
		if p.handler != nil {
			p.handler.WriteActivated(p)
		}
	case libcmd.Hiccup:
		if q, ok := cmd.Extra.(*ypipe); ok {
			p.in = q
		}
		if p.handler != nil {
			p.handler.Hiccuped(p)
		}
	case libcmd.PipeTerm:
		p.onPeerDelimiter()
	case libcmd.PipeHwm:
		p.outHwm = cmd.CountOut
		p.credit.Store(creditFor(p.outHwm))
	}
}

// Terminate begins the local half of the two-phase pipe shutdown: it
// writes and flushes a delimiter frame so the peer's reader will
// eventually observe "no more frames follow" (core specification §4.3
// step 4), then waits up to linger for any already-queued frames to
// drain before marking itself terminating. linger < 0 waits forever;
// linger == 0 discards unsent frames immediately.
func (p *Pipe) Terminate(linger time.Duration) {
	if p.st != stateActive {
		return
	}
	p.st = stateTerminating

	if p.logger != nil {
		p.logger.Debug("pipe termination started, linger=%s", nil, linger.String())
	}

	if linger == 0 {
		p.out.discardPending()
		p.out.write(libmsg.NewDelimiter())
		p.out.flush()
		p.signalPeer(libcmd.Command{Kind: libcmd.ActivateRead})
		return
	}

	p.out.write(libmsg.NewDelimiter())
	p.Flush()
}

func (p *Pipe) onPeerDelimiter() {
	if p.st == stateTerminated {
		return
	}
	p.st = stateTerminated
	if p.handler != nil {
		p.handler.Terminated(p)
	}
}

// Hiccup rebinds this endpoint's read side onto a freshly reconnected
// peer's write queue, per core specification §4.3's reconnection
// behaviour, and notifies the local handler so subscription state (for
// PUB/SUB) can be replayed onto the new queue.
func (p *Pipe) Hiccup(newIn *ypipe) {
	p.in = newIn
	if p.logger != nil {
		p.logger.Debug("pipe hiccuped, read side rebound to fresh queue", nil)
	}
	if p.handler != nil {
		p.handler.Hiccuped(p)
	}
}

// SetHwms updates the high/low water marks used locally; SendHwmsToPeer
// propagates the outbound half across the pipe so both ends agree.
func (p *Pipe) SetHwms(inHwm, outHwm uint64) {
	p.inHwm = inHwm
	p.outHwm = outHwm
	p.lwm = computeLwm(inHwm)
	p.credit.Store(creditFor(outHwm))
}

// SendHwmsToPeer notifies the peer of this endpoint's inbound high water
// mark, so the peer can size its own write credit to match.
func (p *Pipe) SendHwmsToPeer() {
	p.signalPeer(libcmd.Command{Kind: libcmd.PipeHwm, CountOut: p.inHwm})
}

// Stats returns the lifetime frame counters, used for monitor-event
// payloads and PipePeerStats commands.
func (p *Pipe) Stats() (read, written uint64) {
	return p.msgsRead.Load(), p.msgsWritten.Load()
}
