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

// Package message defines Msg, the single frame type carried end to end
// through pipes, sessions and sockets. Msg intentionally has no
// wire-format concerns (encoding a ZMTP frame onto a transport is a
// concern of an engine, out of scope here): it only carries a frame's
// flags, body and routing metadata between in-process components.
package message

import (
	libmeta "github/sabouaram/zmtp/metadata"
)

// Flag is a bitmask of per-frame properties, mirroring the MORE/COMMAND
// distinction carried on the wire plus the in-process-only flags the
// core specification adds for routing and subscription frames.
type Flag uint16

const (
	// More marks a frame as part of a multi-frame message; only the
	// final frame of a logical message has More unset.
	More Flag = 1 << iota

	// Command marks a ZMTP command frame (handshake/heartbeat), never
	// delivered to the user as message content.
	Command

	// CredentialFrame marks the implicit credential frame a Router
	// socket prepends to every message read off a peer's pipe.
	CredentialFrame

	// RoutingIDFlag marks a frame carrying only a routing id, prepended
	// by Router/Dealer on write and stripped on read.
	RoutingIDFlag

	// Shared marks content whose underlying buffer is shared (e.g. a
	// Pub fan-out to N subscriber pipes); Copy must deep-copy such
	// content if the caller intends to mutate it.
	Shared

	// Subscribe marks a subscribe control frame travelling from a Sub
	// pipe upstream to the matching Pub/XPub.
	Subscribe

	// Cancel marks an unsubscribe control frame, the counterpart to
	// Subscribe.
	Cancel

	// Delimiter marks the zero-length frame a pipe's writer appends as
	// the final frame before PipeTerm, the handshake the reader uses to
	// recognise "no more frames will ever follow" (core specification
	// §4.3).
	Delimiter
)

// Has reports whether all bits of other are set in f.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Msg is one frame. The zero value is a valid, empty, final frame.
type Msg struct {
	flags Flag
	body  []byte

	// routingID is kept as its own field rather than folded into body,
	// matching the core specification's fast-path requirement: Router
	// and Dealer must read/set it without touching frame content.
	routingID uint32

	// group holds the RADIO/DISH group name; empty for every other
	// socket type.
	group string

	meta *libmeta.Dict
}

// New returns a final (More unset) frame carrying body by reference.
// Callers that mutate body after handing it to New must first call Copy
// if the Msg may have been marked Shared.
func New(body []byte) Msg {
	return Msg{body: body}
}

// NewDelimiter returns the zero-length marker frame used by the pipe
// termination handshake.
func NewDelimiter() Msg {
	return Msg{flags: Delimiter}
}

// Body returns the frame's payload. The returned slice must not be
// mutated when the frame is Shared.
func (m Msg) Body() []byte { return m.body }

// Size returns the payload length in bytes.
func (m Msg) Size() int { return len(m.body) }

// Flags returns the full flag bitmask.
func (m Msg) Flags() Flag { return m.flags }

// SetFlags ORs extra into the frame's flags and returns the updated Msg.
func (m Msg) SetFlags(extra Flag) Msg {
	m.flags |= extra
	return m
}

// ClearFlags ANDs out extra from the frame's flags and returns the
// updated Msg.
func (m Msg) ClearFlags(extra Flag) Msg {
	m.flags &^= extra
	return m
}

// More reports whether further frames belong to the same logical
// message.
func (m Msg) More() bool { return m.flags.Has(More) }

// IsDelimiter reports whether this is the pipe-termination marker frame.
func (m Msg) IsDelimiter() bool { return m.flags.Has(Delimiter) }

// RoutingID returns the frame's routing id, used by Router on read and
// Dealer/Router on write to select a peer without inspecting content.
func (m Msg) RoutingID() uint32 { return m.routingID }

// SetRoutingID returns a copy of m with its routing id set.
func (m Msg) SetRoutingID(id uint32) Msg {
	m.routingID = id
	return m
}

// Group returns the RADIO/DISH group name, or "" if unset.
func (m Msg) Group() string { return m.group }

// SetGroup returns a copy of m with its group set.
func (m Msg) SetGroup(group string) Msg {
	m.group = group
	return m
}

// Metadata returns the frame's property dictionary, or nil if none was
// attached.
func (m Msg) Metadata() *libmeta.Dict { return m.meta }

// WithMetadata returns a copy of m referencing dict; dict's reference
// count is bumped via Retain, matching the shared-ownership model
// described by the core specification for per-connection properties.
func (m Msg) WithMetadata(dict *libmeta.Dict) Msg {
	if dict != nil {
		dict = dict.Retain()
	}
	m.meta = dict
	return m
}

// Copy returns an independent frame: the body is deep-copied and the
// Shared flag is cleared, regardless of whether it was set. Use this
// before mutating a frame that may have come from a fan-out write.
func (m Msg) Copy() Msg {
	cp := m
	cp.body = append([]byte(nil), m.body...)
	cp.flags &^= Shared
	return cp
}
