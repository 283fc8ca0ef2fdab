/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package delim

import "io"

// Reader returns o as an io.ReadCloser, for callers (engine.Wire's
// readLoop) that only need the delimited-chunk Read behavior and not the
// ReadBytes/WriteTo helpers below.
func (o *dlm) Reader() io.ReadCloser {
	return o
}

// Copy drains o into w one delimited frame at a time until EOF.
func (o *dlm) Copy(w io.Writer) (n int64, err error) {
	return o.WriteTo(w)
}

// Read implements io.Reader by returning the next delimited chunk,
// delimiter included. n is always the full chunk length: when p is
// shorter than the chunk, p receives only the bytes that fit (none when
// cap(p) is smaller than the chunk), and the rest of the chunk is dropped.
func (o *dlm) Read(p []byte) (n int, err error) {
	if o == nil || o.r == nil {
		return 0, ErrInstance
	}

	b, e := o.r.ReadBytes(byte(o.d))

	if len(b) > 0 {
		if cap(p) < len(b) {
			p = append(p, make([]byte, len(b)-len(p))...)
		}
		copy(p, b)
	}

	return len(b), e
}

// UnRead drains and returns whatever the internal bufio.Reader has
// already buffered but not yet handed back through Read/ReadBytes —
// bytes of the next frame engine.Wire's readLoop hasn't asked for yet.
func (o *dlm) UnRead() ([]byte, error) {
	if o == nil || o.r == nil {
		return nil, ErrInstance
	}

	if s := o.r.Buffered(); s > 0 {
		b := make([]byte, s)
		_, e := o.r.Read(b)
		return b, e
	}

	return nil, nil
}

// ReadBytes reads up to and including the next delimiter byte — one
// encoded frame line for engine.Wire's readLoop.
func (o *dlm) ReadBytes() ([]byte, error) {
	if o.r == nil {
		return nil, ErrInstance
	}

	return o.r.ReadBytes(byte(o.d))
}

// Close tears down the internal bufio.Reader and closes the wrapped
// io.ReadCloser. A second call panics, since the internal bufio.Reader
// is already gone.
func (o *dlm) Close() error {
	o.r.Reset(nil)
	o.r = nil

	return o.i.Close()
}

// WriteTo copies every remaining delimited frame from o to w, stopping
// at the first read or write error (io.EOF included). engine.Wire itself
// drives ReadBytes frame-by-frame rather than calling this, but it stays
// available for callers that just want a straight drain-to-writer.
func (o *dlm) WriteTo(w io.Writer) (n int64, err error) {
	var (
		e error
		i int
		b []byte
		s int

		d = o.getDelimByte()
	)

	if o.r == nil {
		return 0, ErrInstance
	}

	for err == nil {
		b, err = o.r.ReadBytes(d)
		s = len(b)

		if s > 0 {
			i, e = w.Write(b)
			n += int64(i)
		}

		clear(b)
		b = b[:0] // nolint
		b = nil

		if err == nil && e != nil {
			err = e
		}
	}

	return n, err
}
