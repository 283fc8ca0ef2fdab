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

// Package socket implements the per-pattern dispatch described by the
// core specification §4.8: each exported type pairs the shared pipe
// bookkeeping in Base with the handful of methods that actually differ
// between patterns (how Send picks a pipe, how Recv picks a pipe, what
// happens to a just-attached or about-to-detach pipe).
package socket

import (
	"sync"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	libfq "github/sabouaram/zmtp/fq"
	liblb "github/sabouaram/zmtp/lb"
	libmsg "github/sabouaram/zmtp/message"
	libobj "github/sabouaram/zmtp/object"
	liboption "github/sabouaram/zmtp/option"
	libpipe "github/sabouaram/zmtp/pipe"
	liberr "github/sabouaram/zmtp/errors"
)

// Socket is implemented by every pattern type. The core specification's
// per-pattern tables (which directions Send/Recv are valid, what
// Attach/Detach do) are realized as the differing method bodies on each
// concrete type; this interface is only the shape a session or context
// needs to drive a socket generically.
type Socket interface {
	libcmd.Receiver

	// Attach wires a newly created pipe into this socket's routing
	// structures (fair queue, load balancer, subscription trie,
	// whatever the pattern needs).
	Attach(p *libpipe.Pipe)

	// Detach unwires a pipe once it has reported Terminated.
	Detach(p *libpipe.Pipe)

	// Send enqueues one frame for delivery, per the pattern's routing
	// rule. ok is false on backpressure (every eligible pipe at its
	// high water mark) or on a pattern/state violation (e.g. Rep
	// sending before a request was received).
	Send(msg libmsg.Msg) (ok bool)

	// Recv dequeues one frame, per the pattern's routing rule.
	Recv() (msg libmsg.Msg, ok bool)

	// Terminate begins this socket's own shutdown with the given
	// linger, terminating every attached pipe and session beneath it.
	Terminate(linger time.Duration)

	// Setsockopt applies one option by Kind to this socket's live Set,
	// returning liberr.InvalidArgument if value has the wrong type or
	// violates this socket's pattern (Conflate on a Req, say).
	Setsockopt(kind liboption.Kind, value interface{}) liberr.Error

	// Getsockopt retrieves one option's current value by Kind.
	Getsockopt(kind liboption.Kind) (interface{}, liberr.Error)
}

// Base holds the bookkeeping every pattern type needs: the ownership
// record, the full set of attached pipes (for Hooks.SendTerm), and
// whichever of fair-queue/load-balancer routing the pattern uses. Not
// every pattern uses both; Pub, for instance, never reads, so its
// embedded FairQueue simply stays empty.
type Base struct {
	libobj.Own

	mu sync.Mutex

	fq libfq.FairQueue
	lb liblb.LoadBalancer

	pipes map[*libpipe.Pipe]struct{}

	self libcmd.Receiver

	opt *liboption.Set
}

// Init wires the embedded Own record and a fresh option Set for pattern;
// every concrete socket constructor calls this once with itself and its
// own Pattern constant.
func (b *Base) Init(self libcmd.Receiver, parent libcmd.Receiver, pattern liboption.Pattern) {
	b.self = self
	b.pipes = make(map[*libpipe.Pipe]struct{})
	b.opt = liboption.New(pattern)
	b.Own.Init(self, parent, b)
}

// Setsockopt implements Socket.
func (b *Base) Setsockopt(kind liboption.Kind, value interface{}) liberr.Error {
	err := b.opt.Set(kind, value)
	if l := b.Logger(); l != nil {
		if err != nil {
			l.Warning("socket setsockopt rejected, kind=%d: %s", nil, kind, err)
		} else {
			l.Debug("socket setsockopt applied, kind=%d", nil, kind)
		}
	}
	return err
}

// Getsockopt implements Socket.
func (b *Base) Getsockopt(kind liboption.Kind) (interface{}, liberr.Error) {
	return b.opt.Get(kind)
}

// Options exposes the live option Set directly, for internal callers
// (engine/pipe construction) that need HWM/Linger/ConflateEnabled
// without going through the Kind-keyed Setsockopt/Getsockopt pair.
func (b *Base) Options() *liboption.Set { return b.opt }

// SendTerm implements object.Hooks.
func (b *Base) SendTerm(child libcmd.Receiver, linger time.Duration) {
	if l := b.Logger(); l != nil {
		l.Debug("socket forwarding term to child, linger=%s", nil, linger.String())
	}
	child.RecvCommand(libcmd.Command{Kind: libcmd.Term, Linger: linger})
}

// SendTermAck implements object.Hooks.
func (b *Base) SendTermAck(parent libcmd.Receiver) {
	if l := b.Logger(); l != nil {
		l.Debug("socket fully unwound, acking parent", nil)
	}
	parent.RecvCommand(libcmd.Command{Kind: libcmd.TermAck, Target: b.self})
}

// Finalize implements object.Hooks; concrete sockets with extra state to
// release override by handling Kind separately in their own RecvCommand
// before delegating here, since Base.Finalize is intentionally a no-op.
func (b *Base) Finalize() {}

func (b *Base) trackPipe(p *libpipe.Pipe) {
	b.mu.Lock()
	b.pipes[p] = struct{}{}
	n := len(b.pipes)
	b.mu.Unlock()

	if l := b.Logger(); l != nil {
		l.Debug("socket attached pipe, total=%d", nil, n)
	}
}

func (b *Base) untrackPipe(p *libpipe.Pipe) {
	b.mu.Lock()
	delete(b.pipes, p)
	n := len(b.pipes)
	b.mu.Unlock()

	if l := b.Logger(); l != nil {
		l.Debug("socket detached pipe, total=%d", nil, n)
	}
}

// terminatePipes asks every attached pipe to begin its own termination;
// concrete sockets call this from their Terminate before delegating the
// ownership-tree accounting to Base.Own.ProcessTerm.
func (b *Base) terminatePipes(linger time.Duration) {
	b.mu.Lock()
	pipes := make([]*libpipe.Pipe, 0, len(b.pipes))
	for p := range b.pipes {
		pipes = append(pipes, p)
	}
	b.mu.Unlock()

	for _, p := range pipes {
		p.Terminate(linger)
	}
}
