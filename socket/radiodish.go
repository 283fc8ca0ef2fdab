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

// Radio fans a message out to every attached pipe whose Dish peer has
// joined the message's group, the exact-match counterpart to Pub's
// prefix match. Radio never reads.
type Radio struct {
	Base

	// groups tracks, per pipe, the set of groups that pipe's Dish peer
	// has joined.
	groups map[*libpipe.Pipe]map[string]struct{}
}

// NewRadio constructs an unattached Radio socket owned by parent.
func NewRadio(parent libcmd.Receiver) *Radio {
	s := &Radio{groups: make(map[*libpipe.Pipe]map[string]struct{})}
	s.Base.Init(s, parent, liboption.PatternRadio)
	return s
}

func (s *Radio) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPipe(p)
	s.groups[p] = make(map[string]struct{})
}

func (s *Radio) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	delete(s.groups, p)
}

// pumpJoins drains pending Subscribe/Cancel group-membership frames a
// Dish peer has written upstream, same polling shape as Pub's
// pumpSubscriptions.
func (s *Radio) pumpJoins() {
	for p, g := range s.groups {
		for {
			msg, ok := p.Read()
			if !ok {
				break
			}
			group := string(msg.Body())
			if msg.Flags().Has(libmsg.Cancel) {
				delete(g, group)
			} else {
				g[group] = struct{}{}
			}
		}
	}
}

func (s *Radio) Send(msg libmsg.Msg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pumpJoins()

	sent := false
	for p, g := range s.groups {
		if _, joined := g[msg.Group()]; !joined {
			continue
		}
		if p.Write(msg) {
			p.Flush()
			sent = true
		}
	}
	return sent
}

func (s *Radio) Recv() (libmsg.Msg, bool) { return libmsg.Msg{}, false }

func (s *Radio) RecvCommand(cmd libcmd.Command) {
	if cmd.Kind == libcmd.Term {
		s.Terminate(cmd.Linger)
	}
}

func (s *Radio) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}

// Dish joins/leaves message groups and fair-queues delivery of frames
// whose group it has joined, writing Subscribe/Cancel control frames
// upstream to every attached pipe whenever its own joined-group set
// changes (the Radio/Dish mirror of Sub's Subscribe/Unsubscribe).
type Dish struct {
	Base

	joined map[string]struct{}
}

// NewDish constructs an unattached Dish socket owned by parent.
func NewDish(parent libcmd.Receiver) *Dish {
	s := &Dish{joined: make(map[string]struct{})}
	s.Base.Init(s, parent, liboption.PatternDish)
	return s
}

func (s *Dish) Attach(p *libpipe.Pipe) {
	s.mu.Lock()
	s.trackPipe(p)
	s.fq.Attach(p)
	s.mu.Unlock()

	s.replay(p)
}

func (s *Dish) Detach(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackPipe(p)
	s.fq.Detach(p)
}

func (s *Dish) replay(p *libpipe.Pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for group := range s.joined {
		sendGroupControl(p, group, false)
	}
}

// Join adds group to this Dish's membership and announces it upstream
// to every attached pipe.
func (s *Dish) Join(group string) {
	s.mu.Lock()
	_, already := s.joined[group]
	s.joined[group] = struct{}{}
	pipes := s.allPipesLocked()
	s.mu.Unlock()

	if already {
		return
	}
	for _, p := range pipes {
		sendGroupControl(p, group, false)
	}
}

// Leave removes group from this Dish's membership and announces the
// departure upstream.
func (s *Dish) Leave(group string) {
	s.mu.Lock()
	_, present := s.joined[group]
	delete(s.joined, group)
	pipes := s.allPipesLocked()
	s.mu.Unlock()

	if !present {
		return
	}
	for _, p := range pipes {
		sendGroupControl(p, group, true)
	}
}

func (s *Dish) allPipesLocked() []*libpipe.Pipe {
	pipes := make([]*libpipe.Pipe, 0, len(s.pipes))
	for p := range s.pipes {
		pipes = append(pipes, p)
	}
	return pipes
}

func sendGroupControl(p *libpipe.Pipe, group string, leave bool) {
	msg := libmsg.New([]byte(group))
	if leave {
		msg = msg.SetFlags(libmsg.Cancel)
	}
	if p.Write(msg) {
		p.Flush()
	}
}

func (s *Dish) Send(_ libmsg.Msg) bool { return false }

func (s *Dish) Recv() (libmsg.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		msg, ok := s.fq.Recv()
		if !ok {
			return libmsg.Msg{}, false
		}
		if _, ok := s.joined[msg.Group()]; ok {
			return msg, true
		}
	}
}

func (s *Dish) RecvCommand(cmd libcmd.Command) {
	switch cmd.Kind {
	case libcmd.Term:
		s.Terminate(cmd.Linger)
	case libcmd.Hiccup:
		if p, ok := cmd.Target.(*libpipe.Pipe); ok {
			s.replay(p)
		}
	}
}

func (s *Dish) Terminate(linger time.Duration) {
	s.terminatePipes(linger)
	s.ProcessTerm(linger)
}
