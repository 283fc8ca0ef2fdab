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

package engine

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"sync"

	libsiz "github.com/nabbar/golib/size"

	libbuf "github/sabouaram/zmtp/ioutils/bufferReadCloser"
	libdlm "github/sabouaram/zmtp/ioutils/delim"
	libmsg "github/sabouaram/zmtp/message"
)

// wireDelim is the record separator for the Wire engine's line protocol:
// one frame per line, so a plain ioutils/delim reader can split the
// stream without knowing anything about message content.
const wireDelim = '\n'

// encodeFrame serializes msg as one delimited line ("flags routingID
// group body\n", group and body base64-encoded so an arbitrary payload
// can never be mistaken for the line delimiter) and writes it to w.
// scratch is a reusable staging buffer, reset after every frame.
func encodeFrame(scratch libbuf.Buffer, w io.Writer, msg libmsg.Msg) error {
	defer scratch.Close()

	scratch.WriteString(strconv.Itoa(int(msg.Flags())))
	scratch.WriteByte(' ')
	scratch.WriteString(strconv.FormatUint(uint64(msg.RoutingID()), 10))
	scratch.WriteByte(' ')
	scratch.WriteString(base64.StdEncoding.EncodeToString([]byte(msg.Group())))
	scratch.WriteByte(' ')
	scratch.WriteString(base64.StdEncoding.EncodeToString(msg.Body()))
	if err := scratch.WriteByte(wireDelim); err != nil {
		return err
	}

	_, err := scratch.WriteTo(w)
	return err
}

// decodeFrame parses one line previously produced by encodeFrame.
func decodeFrame(line []byte) (libmsg.Msg, error) {
	fields := strings.SplitN(strings.TrimSuffix(string(line), "\n"), " ", 4)
	if len(fields) != 4 {
		return libmsg.Msg{}, io.ErrUnexpectedEOF
	}

	flags, err := strconv.Atoi(fields[0])
	if err != nil {
		return libmsg.Msg{}, err
	}
	routingID, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return libmsg.Msg{}, err
	}
	group, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		return libmsg.Msg{}, err
	}
	body, err := base64.StdEncoding.DecodeString(fields[3])
	if err != nil {
		return libmsg.Msg{}, err
	}

	msg := libmsg.New(body).SetFlags(libmsg.Flag(flags)).SetRoutingID(uint32(routingID))
	if len(group) > 0 {
		msg = msg.SetGroup(string(group))
	}
	return msg, nil
}

// Wire is an Engine that actually serializes frames to bytes and back
// across an in-process pipe, unlike Loopback, which hands Msg values
// straight through. It exists to exercise the line-delimited framing a
// real byte transport would use without taking on a real network
// transport (out of scope per the core specification). Two Wire engines
// sharing a connected pair of io.Pipe()s behave like one ZMTP connection
// carried over an arbitrary byte stream.
type Wire struct {
	session SessionHandle

	w io.WriteCloser
	r io.ReadCloser

	scratch libbuf.Buffer
	dec     libdlm.BufferDelim

	wg   sync.WaitGroup
	done chan struct{}
}

// NewWire builds a Wire engine that writes frames onto w and reads them
// back from r. w and r are typically the two ends of a connected
// io.Pipe() pair shared with a peer Wire engine.
func NewWire(w io.WriteCloser, r io.ReadCloser) *Wire {
	return &Wire{
		w:       w,
		r:       r,
		scratch: libbuf.NewBuffer(nil, nil),
		dec:     libdlm.New(r, wireDelim, 4*libsiz.SizeKilo),
		done:    make(chan struct{}),
	}
}

func (e *Wire) Plug(session SessionHandle) {
	e.session = session
	e.session.HandshakeDone()

	e.wg.Add(1)
	go e.readLoop()
}

func (e *Wire) readLoop() {
	defer e.wg.Done()
	for {
		line, err := e.dec.ReadBytes()
		if len(line) > 0 {
			if msg, derr := decodeFrame(line); derr == nil {
				e.session.PushMsg(msg)
			}
		}
		if err != nil {
			if err != io.EOF {
				e.session.EngineError(err)
			}
			return
		}
		select {
		case <-e.done:
			return
		default:
		}
	}
}

func (e *Wire) Terminate() {
	select {
	case <-e.done:
		return
	default:
		close(e.done)
	}
	_ = e.w.Close()
	_ = e.dec.Close()
	e.wg.Wait()
}

func (e *Wire) RestartInput() {}

// RestartOutput drains every frame the session currently has queued onto
// the wire, encoding each with encodeFrame.
func (e *Wire) RestartOutput() {
	for {
		msg, ok := e.session.PullMsg()
		if !ok {
			return
		}
		if err := encodeFrame(e.scratch, e.w, msg); err != nil {
			e.session.EngineError(err)
			return
		}
	}
}

func (e *Wire) HasHandshakeStage() bool { return false }
