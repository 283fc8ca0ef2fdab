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

package option

import (
	"bytes"
	"time"

	toml "github.com/pelletier/go-toml"
	libval "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	liberr "github/sabouaram/zmtp/errors"
)

// Options is the config.Options-shaped value a socket's options are
// loaded from at construction time, mirroring the shape logger/config
// uses for its own Options: plain exported fields tagged for every
// serialisation format viper understands, validated with
// go-playground/validator before being turned into a live Set.
type Options struct {
	SendHWM uint64 `json:"sendHwm,omitempty" yaml:"sendHwm,omitempty" toml:"sendHwm,omitempty" mapstructure:"sendHwm,omitempty" validate:"gte=0"`
	RecvHWM uint64 `json:"recvHwm,omitempty" yaml:"recvHwm,omitempty" toml:"recvHwm,omitempty" mapstructure:"recvHwm,omitempty" validate:"gte=0"`

	// LingerMillis is the linger in milliseconds; -1 waits forever, 0
	// drops unsent frames immediately, matching ZMQ_LINGER's units.
	LingerMillis int64 `json:"lingerMillis,omitempty" yaml:"lingerMillis,omitempty" toml:"lingerMillis,omitempty" mapstructure:"lingerMillis,omitempty"`

	SendTimeoutMillis int64 `json:"sendTimeoutMillis,omitempty" yaml:"sendTimeoutMillis,omitempty" toml:"sendTimeoutMillis,omitempty" mapstructure:"sendTimeoutMillis,omitempty"`
	RecvTimeoutMillis int64 `json:"recvTimeoutMillis,omitempty" yaml:"recvTimeoutMillis,omitempty" toml:"recvTimeoutMillis,omitempty" mapstructure:"recvTimeoutMillis,omitempty"`

	RoutingID string `json:"routingId,omitempty" yaml:"routingId,omitempty" toml:"routingId,omitempty" mapstructure:"routingId,omitempty"`

	Conflate        bool `json:"conflate,omitempty" yaml:"conflate,omitempty" toml:"conflate,omitempty" mapstructure:"conflate,omitempty"`
	RouterMandatory bool `json:"routerMandatory,omitempty" yaml:"routerMandatory,omitempty" toml:"routerMandatory,omitempty" mapstructure:"routerMandatory,omitempty"`
	RouterHandover  bool `json:"routerHandover,omitempty" yaml:"routerHandover,omitempty" toml:"routerHandover,omitempty" mapstructure:"routerHandover,omitempty"`
	Immediate       bool `json:"immediate,omitempty" yaml:"immediate,omitempty" toml:"immediate,omitempty" mapstructure:"immediate,omitempty"`
	IPv6            bool `json:"ipv6,omitempty" yaml:"ipv6,omitempty" toml:"ipv6,omitempty" mapstructure:"ipv6,omitempty"`

	CurvePublicKey string `json:"curvePublicKey,omitempty" yaml:"curvePublicKey,omitempty" toml:"curvePublicKey,omitempty" mapstructure:"curvePublicKey,omitempty"`
	CurveSecretKey string `json:"curveSecretKey,omitempty" yaml:"curveSecretKey,omitempty" toml:"curveSecretKey,omitempty" mapstructure:"curveSecretKey,omitempty"`
	CurveServerKey string `json:"curveServerKey,omitempty" yaml:"curveServerKey,omitempty" toml:"curveServerKey,omitempty" mapstructure:"curveServerKey,omitempty"`

	PlainUsername string `json:"plainUsername,omitempty" yaml:"plainUsername,omitempty" toml:"plainUsername,omitempty" mapstructure:"plainUsername,omitempty"`
	PlainPassword string `json:"plainPassword,omitempty" yaml:"plainPassword,omitempty" toml:"plainPassword,omitempty" mapstructure:"plainPassword,omitempty" validate:"required_with=PlainUsername"`
}

// Validate checks o against its struct tags with go-playground/validator,
// the same library logger/config.Options.Validate uses.
func (o *Options) Validate() liberr.Error {
	e := ErrConfigValidator.Error(nil)

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		} else {
			for _, er := range err.(libval.ValidationErrors) {
				e.Add(er)
			}
		}
	}

	if e.HasParent() {
		return e
	}
	return nil
}

// LoadViper reads the socket option table at key (e.g. "socket.pub") out
// of v, unmarshals it into an Options and validates it. v is typically
// the same *viper.Viper a component's wider config tree already uses;
// this module never owns v's file watching or env binding, only reads
// from it once.
func LoadViper(v *viper.Viper, key string) (*Options, liberr.Error) {
	if v == nil {
		return nil, ErrConfigParamEmpty.Error(nil)
	}

	o := &Options{}
	if err := v.UnmarshalKey(key, o); err != nil {
		return nil, ErrConfigValidator.Error(err)
	}

	if verr := o.Validate(); verr != nil {
		return nil, verr
	}
	return o, nil
}

// LoadTOML decodes raw TOML directly with pelletier/go-toml (bypassing
// viper) into an Options and validates it, for callers that keep socket
// option tables in a standalone .toml file rather than a shared viper
// tree.
func LoadTOML(raw []byte) (*Options, liberr.Error) {
	o := &Options{}
	if err := toml.NewDecoder(bytes.NewReader(raw)).Decode(o); err != nil {
		return nil, ErrConfigValidator.Error(err)
	}

	if verr := o.Validate(); verr != nil {
		return nil, verr
	}
	return o, nil
}

// ToSet converts a validated Options into a live Set for a socket of the
// given pattern, routing every field through Set.Set so a pattern
// mismatch (Conflate on a Req, say) fails here exactly the way a runtime
// Setsockopt call would.
func (o *Options) ToSet(pattern Pattern) (*Set, liberr.Error) {
	s := New(pattern)

	if o.SendHWM != 0 {
		if err := s.Set(SendHWM, o.SendHWM); err != nil {
			return nil, err
		}
	}
	if o.RecvHWM != 0 {
		if err := s.Set(RecvHWM, o.RecvHWM); err != nil {
			return nil, err
		}
	}
	if err := s.Set(Linger, time.Duration(o.LingerMillis)*time.Millisecond); err != nil {
		return nil, err
	}
	if o.SendTimeoutMillis != 0 {
		if err := s.Set(SendTimeout, time.Duration(o.SendTimeoutMillis)*time.Millisecond); err != nil {
			return nil, err
		}
	}
	if o.RecvTimeoutMillis != 0 {
		if err := s.Set(RecvTimeout, time.Duration(o.RecvTimeoutMillis)*time.Millisecond); err != nil {
			return nil, err
		}
	}
	if o.RoutingID != "" {
		if err := s.Set(RoutingID, o.RoutingID); err != nil {
			return nil, err
		}
	}
	if o.Conflate {
		if err := s.Set(Conflate, true); err != nil {
			return nil, err
		}
	}
	if o.RouterMandatory {
		if err := s.Set(RouterMandatory, true); err != nil {
			return nil, err
		}
	}
	if o.RouterHandover {
		if err := s.Set(RouterHandover, true); err != nil {
			return nil, err
		}
	}
	if o.Immediate {
		if err := s.Set(Immediate, true); err != nil {
			return nil, err
		}
	}
	if o.IPv6 {
		if err := s.Set(IPv6, true); err != nil {
			return nil, err
		}
	}
	if o.CurvePublicKey != "" {
		if err := s.Set(CurvePublicKey, []byte(o.CurvePublicKey)); err != nil {
			return nil, err
		}
	}
	if o.CurveSecretKey != "" {
		if err := s.Set(CurveSecretKey, []byte(o.CurveSecretKey)); err != nil {
			return nil, err
		}
	}
	if o.CurveServerKey != "" {
		if err := s.Set(CurveServerKey, []byte(o.CurveServerKey)); err != nil {
			return nil, err
		}
	}
	if o.PlainUsername != "" {
		if err := s.Set(PlainUsername, o.PlainUsername); err != nil {
			return nil, err
		}
	}
	if o.PlainPassword != "" {
		if err := s.Set(PlainPassword, o.PlainPassword); err != nil {
			return nil, err
		}
	}

	return s, nil
}
