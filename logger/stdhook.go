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

package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// stdHook fires a formatted entry at a fixed set of levels to a single
// io.Writer. It is the stdout/stderr half of SetOptions, kept deliberately
// synchronous: the messaging core's own sockets already provide the
// backpressure and buffering a logger would otherwise need to reinvent.
type stdHook struct {
	out logrus.Formatter
	w   io.Writer
	lvl []logrus.Level
}

func newStdHook(w io.Writer, lvl []logrus.Level, f logrus.Formatter) *stdHook {
	return &stdHook{out: f, w: w, lvl: lvl}
}

func (h *stdHook) Levels() []logrus.Level { return h.lvl }

func (h *stdHook) Fire(e *logrus.Entry) error {
	b, err := h.out.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}
