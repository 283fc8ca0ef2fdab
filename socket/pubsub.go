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
	libtrie "github/sabouaram/zmtp/trie"
)

// Pub fans every sent message out to each attached pipe whose
// subscription trie matches the message's leading bytes as a topic
// prefix. Pub never reads: Recv always reports false.
type Pub struct {
	Base

	// subs tracks, per pipe, the prefixes that pipe's peer (a Sub or
	// XSub) has subscribed to, replayed into the pipe's own trie on
	// Hiccup.
	subs map[*libpipe.Pipe]*libtrie.Trie
}

// NewPub constructs an unattached Pub socket owned by parent.
func NewPub(parent libcmd.Receiver) *Pub {
	s := &Pub{subs: make(map[*libpipe.Pipe]*libtrie.Trie)}
	s.Base.Init(s, parent, liboption.PatternPub)
	return s
}

func (s *Pub) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.subs[p] = &libtrie.Trie{}
	s.lb.Attach(p)
}

func (s *Pub) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	delete(s.subs, p)
	s.lb.Detach(p)
}

// RecvSubscription processes one Subscribe/Cancel control frame arriving
// from pipe (a Sub's upstream subscribe message, or an XSub's explicit
// one), updating that pipe's trie.
func (s *Pub) RecvSubscription(pipe *libpipe.Pipe, msg libmsg.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.subs[pipe]
	if !ok {
		return
	}

	body := msg.Body()
	if msg.Flags().Has(libmsg.Cancel) {
		t.Remove(body)
	} else {
		t.Add(body)
	}
}

// pumpSubscriptions drains any pending Subscribe/Cancel control frames
// off every attached pipe. Send calls this before distributing, so a
// publisher never needs a dedicated event-loop hook just to keep its
// subscription tries current.
func (s *Pub) pumpSubscriptions() {
	for p, t := range s.subs {
		for {
			msg, ok := p.Read()
			if !ok {
				break
			}
			if msg.Flags().Has(libmsg.Cancel) {
				t.Remove(msg.Body())
			} else {
				t.Add(msg.Body())
			}
		}
	}
}

func (s *Pub) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pumpSubscriptions()

	topic := msg.Body()

	sent := false
	for p, t := range s.subs {
		if !t.Match(topic) {
			continue
		}
		if p.Write(msg) {
			if !msg.More() {
				p.Flush()
			}
			sent = true
		}
	}
	return sent
}

func (s *Pub) Recv() (libmsg.Msg, bool) { return libmsg.Msg{}, false }

func (s *Pub) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Pub) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// Sub reads from every attached pipe (fair-queued) and locally filters
// by its own subscription set before a frame reaches the user, and
// writes Subscribe/Cancel control frames upstream to every attached
// pipe whenever the subscription set changes.
type Sub struct {
	Base

	local libtrie.Trie
}

// NewSub constructs an unattached Sub socket owned by parent.
func NewSub(parent libcmd.Receiver) *Sub {
	s := &Sub{}
	s.Base.Init(s, parent, liboption.PatternSub)
	return s
}

func (s *Sub) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	s.trackPipe(p)
	s.fq.Attach(p)
	s.mu.Unlock()

	s.replay(p)
}

func (s *Sub) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
}

// replay re-sends every currently-subscribed prefix to p, used both
// on first Attach and after a Hiccup callback rebinds this pipe to a
// freshly reconnected peer.
func (s *Sub) replay(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.local.Walk(func(prefix []byte) {
		sendSubscription(p, prefix, false)
	})
}

// Subscribe adds prefix to the local subscription set and propagates it
// upstream to every attached pipe as a Subscribe control frame.
func (s *Sub) Subscribe(prefix []byte) {
	s.mu.Lock()
	status := s.local.Add(prefix)
	pipes := s.allPipes()
	s.mu.Unlock()

	if status != libtrie.FirstSubscriber {
		return
	}
	for _, p := range pipes {
		sendSubscription(p, prefix, false)
	}
}

// Unsubscribe removes prefix and, if no other local caller still wants
// it, propagates a Cancel control frame upstream.
func (s *Sub) Unsubscribe(prefix []byte) {
	s.mu.Lock()
	status := s.local.Remove(prefix)
	pipes := s.allPipes()
	s.mu.Unlock()

	if status != libtrie.LastSubscriber {
		return
	}
	for _, p := range pipes {
		sendSubscription(p, prefix, true)
	}
}

func (s *Sub) allPipes() []*libpipe.Pipe {
	pipes := make([]*libpipe.Pipe, 0, len(s.pipes))
	for p := range s.pipes {
		pipes = append(pipes, p)
	}
	return pipes
}

func sendSubscription(p *libpipe.Pipe, prefix []byte, cancel bool) {
	body := append([]byte(nil), prefix...)
	msg := libmsg.New(body).SetFlags(libmsg.Subscribe)
	if cancel {
		msg = msg.SetFlags(libmsg.Cancel)
	}
	if p.Write(msg) {
		p.Flush()
	}
}

func (s *Sub) Send(_ libmsg.Msg) bool { return false }

func (s *Sub) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		msg, ok := s.fq.Recv()
		if !ok {
			return libmsg.Msg{}, false
		}
		if s.local.Match(msg.Body()) {
			return msg, true
		}
	}
}

func (s *Sub) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.Term:
		s.Terminate(cmd.Linger)
	case libcmd.Hiccup:
		if p, ok := cmd.Target.(*libpipe.Pipe); ok {
			s.replay(p)
		}
	}
}

func (s *Sub) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// XPub is Pub with subscriptions surfaced to the user as ordinary
// inbound frames (Subscribe/Cancel, leading byte 0x01/0x00 by ZMTP
// convention) rather than applied silently, matching libzmq's XPUB.
type XPub struct {
	Pub

	rx []libmsg.Msg
}

// NewXPub constructs an unattached XPub socket owned by parent.
func NewXPub(parent libcmd.Receiver) *XPub {
	s := &XPub{}
	s.Base.Init(s, parent, liboption.PatternXPub)
	s.subs = make(map[*libpipe.Pipe]*libtrie.Trie)
	return s
}

func (s *XPub) recvControl(pipe *libpipe.Pipe, msg libmsg.Msg) {
	s.Pub.RecvSubscription(pipe, msg)

	body := msg.Body()
	surfaced := make([]byte, 1+len(body))
	if msg.Flags().Has(libmsg.Cancel) {
		surfaced[0] = 0x00
	} else {
		surfaced[0] = 0x01
	}
	copy(surfaced[1:], body)

	s.rx = append(s.rx, libmsg.New(surfaced))
}

// Send overrides Pub.Send so subscription control frames are also
// surfaced to the user as inbound data, instead of only updating the
// trie silently the way a plain Pub does.
func (s *XPub) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p, t := range s.subs {
		for {
			ctrl, ok := p.Read()
			if !ok {
				break
			}
			s.recvControl(p, ctrl)
			_ = t // trie already updated inside recvControl via RecvSubscription
		}
	}

	topic := msg.Body()
	sent := false
	for p, t := range s.subs {
		if !t.Match(topic) {
			continue
		}
		if p.Write(msg) {
			if !msg.More() {
				p.Flush()
			}
			sent = true
		}
	}
	return sent
}

func (s *XPub) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rx) == 0 {
		return libmsg.Msg{}, false
	}
	msg := s.rx[0]
	s.rx = s.rx[1:]
	return msg, true
}

// XSub is Sub without local filtering: every frame read off an
// attached pipe is surfaced to the user, and subscribe/unsubscribe
// control frames are written explicitly by the user rather than derived
// from Subscribe/Unsubscribe calls, matching libzmq's XSUB.
type XSub struct {
	Base
}

// NewXSub constructs an unattached XSub socket owned by parent.
func NewXSub(parent libcmd.Receiver) *XSub {
	s := &XSub{}
	s.Base.Init(s, parent, liboption.PatternXSub)
	return s
}

func (s *XSub) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.fq.Attach(p)
}

func (s *XSub) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
}

// Send writes a raw control or data frame verbatim; the leading-byte
// subscribe/cancel convention is the caller's responsibility for XSUB.
func (s *XSub) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.Send(msg)
}

func (s *XSub) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fq.Recv()
}

func (s *XSub) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *XSub) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}
