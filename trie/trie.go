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

// Package trie implements the prefix-match subscription table shared by
// Sub, XPub and Pub's distribution side: a byte-at-a-time trie where
// each node tracks which of its 256 possible children are populated
// with a bitset rather than a fixed-size array, keeping a trie of many
// short, mostly-distinct topics memory-proportional to what is actually
// subscribed.
package trie

import (
	"github.com/bits-and-blooms/bitset"
)

// Status reports the effect an Add or Remove had, so a Pub/XPub socket
// knows whether to forward the (un)subscribe upstream to its own peers:
// only a transition across zero refs is interesting.
type Status uint8

const (
	// Unchanged means the subscription already existed (Add) or still
	// has other subscribers (Remove).
	Unchanged Status = iota

	// FirstSubscriber means this Add created a brand new subscriber
	// count at this exact prefix.
	FirstSubscriber

	// LastSubscriber means this Remove dropped the last subscriber at
	// this exact prefix.
	LastSubscriber

	// NotFound means a Remove targeted a prefix with no subscribers.
	NotFound
)

type node struct {
	refs     uint32
	present  *bitset.BitSet // which of 256 possible children exist
	children map[byte]*node
}

func newNode() *node {
	return &node{present: bitset.New(256)}
}

func (n *node) child(b byte, create bool) *node {
	if n.children == nil {
		if !create {
			return nil
		}
		n.children = make(map[byte]*node)
	}

	c, ok := n.children[b]
	if !ok {
		if !create {
			return nil
		}
		c = newNode()
		n.children[b] = c
		n.present.Set(uint(b))
	}
	return c
}

// Trie is a subscription table keyed by arbitrary byte-string prefixes.
// The zero value is ready to use.
type Trie struct {
	root node
}

// Add registers one subscriber for prefix and reports whether this was
// the first subscriber at that exact prefix.
func (t *Trie) Add(prefix []byte) Status {
	n := &t.root
	for _, b := range prefix {
		n = n.child(b, true)
	}
	n.refs++
	if n.refs == 1 {
		return FirstSubscriber
	}
	return Unchanged
}

// Remove drops one subscriber for prefix and reports whether that was
// the last one, pruning now-empty nodes back up the path.
func (t *Trie) Remove(prefix []byte) Status {
	path := make([]*node, 0, len(prefix)+1)
	path = append(path, &t.root)

	n := &t.root
	for _, b := range prefix {
		n = n.child(b, false)
		if n == nil {
			return NotFound
		}
		path = append(path, n)
	}

	if n.refs == 0 {
		return NotFound
	}

	n.refs--
	last := n.refs == 0

	if last {
		t.prune(path, prefix)
	}

	if last {
		return LastSubscriber
	}
	return Unchanged
}

// prune removes trailing nodes that carry no subscription and no
// children, walking back from the leaf.
func (t *Trie) prune(path []*node, prefix []byte) {
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.refs != 0 || n.present.Count() != 0 {
			break
		}
		parent := path[i-1]
		b := prefix[i-1]
		delete(parent.children, b)
		parent.present.Clear(uint(b))
	}
}

// Match reports whether any subscribed prefix is a prefix of topic, the
// publish-side test run once per outbound message per subscriber pipe.
func (t *Trie) Match(topic []byte) bool {
	n := &t.root
	if n.refs > 0 {
		return true
	}

	for _, b := range topic {
		n = n.child(b, false)
		if n == nil {
			return false
		}
		if n.refs > 0 {
			return true
		}
	}
	return false
}

// Walk calls fn once for every prefix with at least one subscriber,
// depth-first. Used to replay a socket's full subscription set onto a
// freshly (re)connected pipe after Hiccup.
func (t *Trie) Walk(fn func(prefix []byte)) {
	t.walk(&t.root, nil, fn)
}

func (t *Trie) walk(n *node, prefix []byte, fn func([]byte)) {
	if n.refs > 0 {
		cp := append([]byte(nil), prefix...)
		fn(cp)
	}

	for b := uint(0); b < 256; b++ {
		if !n.present.Test(b) {
			continue
		}
		c := n.children[byte(b)]
		next := make([]byte, len(prefix)+1)
		copy(next, prefix)
		next[len(prefix)] = byte(b)
		t.walk(c, next, fn)
	}
}
