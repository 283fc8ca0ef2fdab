/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package errors

// Kind values are the CodeError constants used across the messaging core.
// They follow the taxonomy described by the core specification: every
// fallible path returns one of these, never a bare Go error.
const (
	// WouldBlock mirrors EAGAIN: the call would have to block to complete
	// and the caller asked for non-blocking behaviour.
	WouldBlock CodeError = iota + 100

	// Interrupted mirrors EINTR: a blocking call was interrupted before
	// it could complete.
	Interrupted

	// Terminated mirrors ETERM: the owning Context has started or
	// finished shutdown.
	Terminated

	// InvalidArgument mirrors EINVAL: an option, address or flag
	// combination is not valid for the target socket type.
	InvalidArgument

	// AddressInUse mirrors EADDRINUSE.
	AddressInUse

	// AddressNotAvailable mirrors EADDRNOTAVAIL.
	AddressNotAvailable

	// HostUnreachable mirrors EHOSTUNREACH.
	HostUnreachable

	// NotSupported mirrors ENOTSUP: the operation has no meaning for the
	// target socket type.
	NotSupported

	// ProtocolNotSupported mirrors EPROTONOSUPPORT: the endpoint scheme
	// is not recognised.
	ProtocolNotSupported

	// TooManyOpenFiles mirrors EMFILE.
	TooManyOpenFiles

	// TooManyThreads mirrors EMTHREAD: the Context's I/O thread pool is
	// exhausted.
	TooManyThreads

	// NoCompatibleProtocol means the two peers negotiated no common
	// ZMTP version/mechanism.
	NoCompatibleProtocol

	// FiniteStateMachineError mirrors EFSM: the call is invalid in the
	// socket's current state (e.g. REQ sending twice in a row).
	FiniteStateMachineError

	// Fault is the catch-all for internal invariant violations that are
	// not supposed to be reachable from well-formed use of the API.
	Fault
)

func init() {
	RegisterIdFctMessage(WouldBlock, func(code CodeError) string {
		switch code {
		case WouldBlock:
			return "operation would block"
		case Interrupted:
			return "call interrupted"
		case Terminated:
			return "context terminated"
		case InvalidArgument:
			return "invalid argument"
		case AddressInUse:
			return "address already in use"
		case AddressNotAvailable:
			return "address not available"
		case HostUnreachable:
			return "host unreachable"
		case NotSupported:
			return "operation not supported for this socket type"
		case ProtocolNotSupported:
			return "endpoint scheme not supported"
		case TooManyOpenFiles:
			return "too many open files"
		case TooManyThreads:
			return "too many I/O threads requested"
		case NoCompatibleProtocol:
			return "no compatible protocol negotiated"
		case FiniteStateMachineError:
			return "operation invalid in current socket state"
		case Fault:
			return "internal fault"
		default:
			return ""
		}
	})
}
