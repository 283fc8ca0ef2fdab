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

// Dealer load-balances sends and fair-queues receives across every
// attached pipe, with no routing-id framing of its own: it is the
// asynchronous, many-peer generalisation of Req.
type Dealer struct {
	Base
}

// NewDealer constructs an unattached Dealer socket owned by parent.
func NewDealer(parent libcmd.Receiver) *Dealer {
	s := &Dealer{}
	s.Base.Init(s, parent, liboption.PatternDealer)
	return s
}

func (s *Dealer) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.fq.Attach(p)
	s.lb.Attach(p)
}

func (s *Dealer) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
	s.lb.Detach(p)
}

func (s *Dealer) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.Send(msg)
}

func (s *Dealer) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fq.Recv()
}

func (s *Dealer) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Dealer) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// Router prepends the originating pipe's routing id to every frame it
// reads, and on send consumes a leading routing-id frame to pick which
// attached pipe to write the rest of the message to — the core
// specification's only pattern where Send needs an explicit
// destination rather than a rotation or fan-out rule.
type Router struct {
	Base

	byID       map[uint32]*libpipe.Pipe
	idOf       map[*libpipe.Pipe]uint32
	byIdentity map[string]*libpipe.Pipe
	next       uint32
}

// NewRouter constructs an unattached Router socket owned by parent.
func NewRouter(parent libcmd.Receiver) *Router {
	s := &Router{
		byID:       make(map[uint32]*libpipe.Pipe),
		idOf:       make(map[*libpipe.Pipe]uint32),
		byIdentity: make(map[string]*libpipe.Pipe),
	}
	s.Base.Init(s, parent, liboption.PatternRouter)
	return s
}

// Attach wires in a pipe with no peer-declared identity (the common
// case: the peer never sent an Identity frame during its handshake, so
// Router mints its own routing id).
func (s *Router) Attach(p *libpipe.Pipe) {
	s.AttachIdentity(p, "")
}

// AttachIdentity wires in a pipe that may carry a routing id the peer
// declared itself (the ZMTP Identity handshake frame), implementing
// router_handover: if another live pipe is already registered under the
// same identity, it is replaced — the new pipe takes over the identity
// and the old pipe is terminated — per spec.md §9's "replace old"
// resolution of the router_mandatory/router_handover interaction,
// grounded on original_source/src/router.rs.
func (s *Router) AttachIdentity(p *libpipe.Pipe, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity != "" {
		if old, ok := s.byIdentity[identity]; ok && old != p {
			s.detachLocked(old)
			old.Terminate(0)
		}
		s.byIdentity[identity] = p
		p.SetIdentity(identity)
	}

	s.next++
	id := s.next
	p.SetRoutingID(id)

	s.trackPipe(p)
	s.byID[id] = p
	s.idOf[p] = id
	s.fq.Attach(p)
}

func (s *Router) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked(p)
}

// detachLocked removes p's routing-table entries; callers must already
// hold s.mu.
func (s *Router) detachLocked(p *libpipe.Pipe) {
	s.untrackPipe(p)
	if id, ok := s.idOf[p]; ok {
		delete(s.byID, id)
		delete(s.idOf, p)
	}
	if identity := p.Identity(); identity != "" {
		if cur, ok := s.byIdentity[identity]; ok && cur == p {
			delete(s.byIdentity, identity)
		}
	}
	s.fq.Detach(p)
}

// Send expects msg to be the first frame of a logical message whose
// body is the 4-byte routing id previously surfaced by Recv; the
// remaining frames of the message are written verbatim to the pipe that
// id identifies. It returns false if no pipe with that id is currently
// attached, or if that pipe is at its high water mark.
func (s *Router) Send(routingID uint32, msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[routingID]
	if !ok {
		return false
	}

	if !p.Write(msg) {
		return false
	}
	if !msg.More() {
		p.Flush()
	}
	return true
}

// Recv dequeues the next frame in fair-queued round robin, prepended
// implicitly by stamping its RoutingID to the originating pipe's id so
// the caller knows which peer it came from and can Send a reply.
func (s *Router) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, p, ok := s.fq.RecvPipe()
	if !ok {
		return libmsg.Msg{}, false
	}

	if id, ok := s.idOf[p]; ok {
		return msg.SetRoutingID(id), true
	}
	return msg, true
}

func (s *Router) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Router) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}
