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

// Package option implements the socket option descriptors the core
// specification's Socket type carries: high/low water mark, linger,
// send/recv timeouts, routing id, CURVE/PLAIN credentials, XPub flags
// and Conflate. Set is the live, mutex-guarded snapshot a running Socket
// consults and mutates via Setsockopt/Getsockopt; Options (config.go) is
// the config.Options-shaped value loaded from viper/toml at construction
// time and converted into a Set once.
package option

import (
	"sync"
	"time"

	liberr "github/sabouaram/zmtp/errors"
)

// Pattern identifies a socket's wire pattern, used only to decide which
// options are meaningful for it (Conflate, RouterMandatory and
// RouterHandover are not defined for every pattern).
type Pattern uint8

const (
	PatternPair Pattern = iota
	PatternPub
	PatternSub
	PatternXPub
	PatternXSub
	PatternDealer
	PatternRouter
	PatternPush
	PatternPull
	PatternReq
	PatternRep
	PatternRadio
	PatternDish
)

// conflateAllowed is the set of patterns the core specification allows
// Conflate on: the patterns that never carry a multipart message, so
// "keep only the most recent frame" has an unambiguous meaning. Setting
// Conflate on any other pattern fails with liberr.InvalidArgument at
// Setsockopt time instead of silently being ignored.
var conflateAllowed = map[Pattern]bool{
	PatternDealer: true,
	PatternPush:   true,
	PatternPull:   true,
	PatternPub:    true,
	PatternSub:    true,
}

// Kind enumerates every socket option this module recognises.
type Kind uint8

const (
	SendHWM Kind = iota
	RecvHWM
	Linger
	SendTimeout
	RecvTimeout
	ReconnectIVL
	HeartbeatIVL
	HeartbeatTTL
	HeartbeatTimeout
	RoutingID
	Conflate
	RouterMandatory
	RouterHandover
	Immediate
	IPv6
	InvertMatching
	ProbeRouter
	XPubVerbose
	XPubManual
	XPubNoDrop
	CurvePublicKey
	CurveSecretKey
	CurveServerKey
	PlainUsername
	PlainPassword
)

// Set is one socket's live option snapshot. The zero value is not
// usable; construct with New.
type Set struct {
	mu      sync.Mutex
	pattern Pattern

	sendHWM, recvHWM uint64
	linger           time.Duration

	sendTimeout, recvTimeout                     time.Duration
	reconnectIVL                                 time.Duration
	heartbeatIVL, heartbeatTTL, heartbeatTimeout  time.Duration

	routingID string
	conflate  bool

	routerMandatory, routerHandover             bool
	immediate, ipv6, invertMatching, probeRouter bool
	xpubVerbose, xpubManual, xpubNoDrop          bool

	curvePublicKey, curveSecretKey, curveServerKey []byte
	plainUsername, plainPassword                   string
}

// New constructs a Set for a socket of the given pattern with libzmq's
// usual defaults: HWM 1000 each direction, linger -1 (wait forever).
func New(pattern Pattern) *Set {
	return &Set{
		pattern: pattern,
		sendHWM: 1000,
		recvHWM: 1000,
		linger:  -1,
	}
}

// Pattern reports the wire pattern this Set validates options against.
func (s *Set) Pattern() Pattern { return s.pattern }

// Set applies one option by Kind, returning liberr.InvalidArgument if
// value is the wrong type for kind or violates a pattern-specific
// constraint (Conflate's pattern allow-list being the one this module
// currently enforces), and liberr.NotSupported if kind is not a defined
// Kind value.
func (s *Set) Set(kind Kind, value interface{}) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case SendHWM:
		v, ok := value.(uint64)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.sendHWM = v
	case RecvHWM:
		v, ok := value.(uint64)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.recvHWM = v
	case Linger:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.linger = v
	case SendTimeout:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.sendTimeout = v
	case RecvTimeout:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.recvTimeout = v
	case ReconnectIVL:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.reconnectIVL = v
	case HeartbeatIVL:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.heartbeatIVL = v
	case HeartbeatTTL:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.heartbeatTTL = v
	case HeartbeatTimeout:
		v, ok := value.(time.Duration)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.heartbeatTimeout = v
	case RoutingID:
		v, ok := value.(string)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.routingID = v
	case Conflate:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		if v && !conflateAllowed[s.pattern] {
			return liberr.InvalidArgument.Error(nil)
		}
		s.conflate = v
	case RouterMandatory:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		if v && s.pattern != PatternRouter {
			return liberr.InvalidArgument.Error(nil)
		}
		s.routerMandatory = v
	case RouterHandover:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		if v && s.pattern != PatternRouter {
			return liberr.InvalidArgument.Error(nil)
		}
		s.routerHandover = v
	case Immediate:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.immediate = v
	case IPv6:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.ipv6 = v
	case InvertMatching:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.invertMatching = v
	case ProbeRouter:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.probeRouter = v
	case XPubVerbose:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.xpubVerbose = v
	case XPubManual:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.xpubManual = v
	case XPubNoDrop:
		v, ok := value.(bool)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.xpubNoDrop = v
	case CurvePublicKey:
		v, ok := value.([]byte)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.curvePublicKey = v
	case CurveSecretKey:
		v, ok := value.([]byte)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.curveSecretKey = v
	case CurveServerKey:
		v, ok := value.([]byte)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.curveServerKey = v
	case PlainUsername:
		v, ok := value.(string)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.plainUsername = v
	case PlainPassword:
		v, ok := value.(string)
		if !ok {
			return liberr.InvalidArgument.Error(nil)
		}
		s.plainPassword = v
	default:
		return liberr.NotSupported.Error(nil)
	}

	return nil
}

// Get retrieves one option's current value by Kind.
func (s *Set) Get(kind Kind) (interface{}, liberr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case SendHWM:
		return s.sendHWM, nil
	case RecvHWM:
		return s.recvHWM, nil
	case Linger:
		return s.linger, nil
	case SendTimeout:
		return s.sendTimeout, nil
	case RecvTimeout:
		return s.recvTimeout, nil
	case ReconnectIVL:
		return s.reconnectIVL, nil
	case HeartbeatIVL:
		return s.heartbeatIVL, nil
	case HeartbeatTTL:
		return s.heartbeatTTL, nil
	case HeartbeatTimeout:
		return s.heartbeatTimeout, nil
	case RoutingID:
		return s.routingID, nil
	case Conflate:
		return s.conflate, nil
	case RouterMandatory:
		return s.routerMandatory, nil
	case RouterHandover:
		return s.routerHandover, nil
	case Immediate:
		return s.immediate, nil
	case IPv6:
		return s.ipv6, nil
	case InvertMatching:
		return s.invertMatching, nil
	case ProbeRouter:
		return s.probeRouter, nil
	case XPubVerbose:
		return s.xpubVerbose, nil
	case XPubManual:
		return s.xpubManual, nil
	case XPubNoDrop:
		return s.xpubNoDrop, nil
	case CurvePublicKey:
		return s.curvePublicKey, nil
	case CurveSecretKey:
		return s.curveSecretKey, nil
	case CurveServerKey:
		return s.curveServerKey, nil
	case PlainUsername:
		return s.plainUsername, nil
	case PlainPassword:
		return s.plainPassword, nil
	default:
		return nil, liberr.NotSupported.Error(nil)
	}
}

// Conflate reports whether this Set currently has Conflate enabled, the
// accessor engine/pipe construction consults to pick the conflate-queue
// variant of a pipe's ypipe.
func (s *Set) ConflateEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflate
}

// HWM returns the configured send and receive high water marks.
func (s *Set) HWM() (send, recv uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendHWM, s.recvHWM
}

// LingerDuration returns the configured linger.
func (s *Set) LingerDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linger
}
