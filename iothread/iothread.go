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

// Package iothread implements the worker goroutines a Context's pool
// hands sessions to. Each IOThread owns exactly one Mailbox and runs a
// single loop that dequeues Commands and dispatches them to whichever
// Pluggable they target — mirroring the one-event-loop-per-OS-thread
// design of the core specification, with a goroutine standing in for
// the OS thread.
package iothread

import (
	"sync"
	"time"

	libcmd "github/sabouaram/zmtp/command"
	libmbx "github/sabouaram/zmtp/mailbox"
)

// Pluggable is the narrow view an IOThread needs of whatever it hosts
// (a Session, in practice): just enough to route a Command to it.
// IOThread never imports package session to avoid a cycle, since a
// session is constructed with knowledge of its IOThread.
type Pluggable interface {
	libcmd.Receiver
}

// IOThread runs one command-dispatch loop on its own goroutine.
type IOThread struct {
	mbx libmbx.Mailbox

	wg      sync.WaitGroup
	stopped chan struct{}
}

// New creates an IOThread with a fresh single-reader mailbox but does
// not start its loop; call Start for that.
func New() (*IOThread, error) {
	mbx, err := libmbx.NewSingleReader()
	if err != nil {
		return nil, err
	}
	return &IOThread{mbx: mbx, stopped: make(chan struct{})}, nil
}

// Mailbox returns the thread's inbox, for handing to objects that will
// send it commands (a Context registering a newly plugged session,
// for instance).
func (t *IOThread) Mailbox() libmbx.Mailbox { return t.mbx }

// Start runs the dispatch loop on a new goroutine. It returns
// immediately; call Stop to unwind it.
func (t *IOThread) Start() {
	t.wg.Add(1)
	go t.loop()
}

func (t *IOThread) loop() {
	defer t.wg.Done()

	for {
		cmd, err := t.mbx.Recv(-1)
		if err != nil {
			return
		}

		if cmd.Kind == libcmd.Stop {
			return
		}

		if cmd.Target != nil {
			cmd.Target.RecvCommand(cmd)
		}
	}
}

// Stop closes the mailbox, unblocking the loop, and waits for it to
// exit. Safe to call once; a second call is a no-op.
func (t *IOThread) Stop() {
	select {
	case <-t.stopped:
		return
	default:
		close(t.stopped)
	}
	t.mbx.Close()
	t.wg.Wait()
}

// Pool runs a fixed-size set of IOThreads and assigns new work to
// whichever currently has the fewest sessions plugged into it, the
// same least-loaded placement libzmq's io_thread pool uses.
type Pool struct {
	mu      sync.Mutex
	threads []*IOThread
	load    []int
}

// NewPool starts n IOThreads immediately.
func NewPool(n int) (*Pool, error) {
	if n <= 0 {
		n = 1
	}

	p := &Pool{
		threads: make([]*IOThread, 0, n),
		load:    make([]int, 0, n),
	}

	for i := 0; i < n; i++ {
		t, err := New()
		if err != nil {
			p.Stop()
			return nil, err
		}
		t.Start()
		p.threads = append(p.threads, t)
		p.load = append(p.load, 0)
	}

	return p, nil
}

// Choose returns the least-loaded thread in the pool and bumps its
// load counter.
func (p *Pool) Choose() *IOThread {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := 0
	for i, l := range p.load {
		if l < p.load[best] {
			best = i
		}
	}
	p.load[best]++
	return p.threads[best]
}

// Release drops the load counter for the thread a session was plugged
// into, once that session has terminated.
func (p *Pool) Release(t *IOThread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, cand := range p.threads {
		if cand == t {
			if p.load[i] > 0 {
				p.load[i]--
			}
			return
		}
	}
}

// Stop shuts down every thread in the pool and waits for all of them to
// exit, with an overall deadline so a wedged thread cannot hang
// Context.Terminate forever.
func (p *Pool) Stop() {
	p.mu.Lock()
	threads := append([]*IOThread(nil), p.threads...)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, t := range threads {
			t.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
	}
}
