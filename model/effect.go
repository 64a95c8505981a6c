// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package model

import (
	"time"

	"github.com/pkg/errors"
)

// EffectType identifies a type of request the LED worker can execute.
type EffectType string

const (
	EffectTypeOff          EffectType = "off"
	EffectTypeColor        EffectType = "color"
	EffectTypeBrightness   EffectType = "brightness"
	EffectTypeRed          EffectType = "red"
	EffectTypeGreen        EffectType = "green"
	EffectTypeBlue         EffectType = "blue"
	EffectTypeWhite        EffectType = "white"
	EffectTypeFadeIn       EffectType = "fade-in"
	EffectTypeFadeOut      EffectType = "fade-out"
	EffectTypeBreathing    EffectType = "breathing"
	EffectTypeRainbow      EffectType = "rainbow"
	EffectTypeGradient     EffectType = "gradient"
	EffectTypeDemo         EffectType = "demo"
	EffectTypeCombinations EffectType = "combinations"
)

// EffectTypeInfo holds builtin information for a type of effects.
type EffectTypeInfo struct {
	Type EffectType
	// Driver modes that can execute this type of effect
	Modes []DriverMode
	// Set if the effect is a timed sequence (as opposed to a single write)
	Timed bool
}

var (
	bothModes = []DriverMode{DriverModeBinary, DriverModePWM}
	pwmOnly   = []DriverMode{DriverModePWM}

	effectTypeInfos = []EffectTypeInfo{
		{Type: EffectTypeOff, Modes: bothModes},
		{Type: EffectTypeColor, Modes: bothModes},
		{Type: EffectTypeBrightness, Modes: pwmOnly},
		{Type: EffectTypeRed, Modes: bothModes},
		{Type: EffectTypeGreen, Modes: bothModes},
		{Type: EffectTypeBlue, Modes: bothModes},
		{Type: EffectTypeWhite, Modes: bothModes},
		{Type: EffectTypeFadeIn, Modes: pwmOnly, Timed: true},
		{Type: EffectTypeFadeOut, Modes: pwmOnly, Timed: true},
		{Type: EffectTypeBreathing, Modes: pwmOnly, Timed: true},
		{Type: EffectTypeRainbow, Modes: pwmOnly, Timed: true},
		{Type: EffectTypeGradient, Modes: pwmOnly, Timed: true},
		{Type: EffectTypeDemo, Modes: bothModes, Timed: true},
		{Type: EffectTypeCombinations, Modes: bothModes, Timed: true},
	}
)

// Info returns the builtin information of the type.
// Returns false if the type is unknown.
func (t EffectType) Info() (EffectTypeInfo, bool) {
	for _, typeInfo := range effectTypeInfos {
		if typeInfo.Type == t {
			return typeInfo, true
		}
	}
	return EffectTypeInfo{}, false
}

// Validate the given type, returning nil on ok,
// or an error upon validation issues.
func (t EffectType) Validate() error {
	if _, found := t.Info(); !found {
		return errors.Wrapf(InvalidArgumentError, "invalid effect type '%s'", string(t))
	}
	return nil
}

// SupportsMode returns true if an effect of this type can run on a driver
// in the given mode.
func (t EffectType) SupportsMode(mode DriverMode) bool {
	info, found := t.Info()
	if !found {
		return false
	}
	for _, m := range info.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Default effect parameters
const (
	DefaultFadeDurationMs      = 1000
	DefaultFadeSteps           = 50
	DefaultBreathingCycles     = 3
	DefaultBreathingDurationMs = 2000
	// BreathingSteps is the number of steps of each half of a breath.
	BreathingSteps            = 25
	DefaultRainbowDurationMs  = 5000
	DefaultRainbowSteps       = 100
	DefaultGradientDurationMs = 2000
	DefaultGradientSteps      = 20
	DefaultDemoIntervalMs     = 1000
	DefaultCombinationMs      = 500
)

// EffectRequest is a request to change the LED output.
type EffectRequest struct {
	// Type of effect
	Type EffectType `json:"type" yaml:"type"`
	// Color (0-255 per channel) used by color, breathing and as start of gradient.
	Color ColorValue `json:"color" yaml:"color"`
	// To is the end color of a gradient.
	To ColorValue `json:"to" yaml:"to"`
	// Brightness (0-100 per channel) used by brightness and fade-in.
	Brightness Brightness `json:"brightness" yaml:"brightness"`
	// Level (0-100) of the channel(s) set by red, green, blue & white.
	// Defaults to 100.
	Level *float64 `json:"level,omitempty" yaml:"level,omitempty"`
	// Total duration of a timed effect in milliseconds.
	DurationMs int `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	// Number of steps of a timed effect.
	Steps int `json:"steps,omitempty" yaml:"steps,omitempty"`
	// Number of breathing cycles.
	Cycles int `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	// Number of rainbow cycles. 0 means until canceled.
	Repeat int `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	// Dwell time of each color of a demo in milliseconds.
	IntervalMs int `json:"intervalMs,omitempty" yaml:"intervalMs,omitempty"`
}

// WithDefaults returns a copy of the request with all unset
// parameters replaced by their defaults.
func (r EffectRequest) WithDefaults() EffectRequest {
	setDefault := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	switch r.Type {
	case EffectTypeFadeIn, EffectTypeFadeOut:
		setDefault(&r.DurationMs, DefaultFadeDurationMs)
		setDefault(&r.Steps, DefaultFadeSteps)
	case EffectTypeBreathing:
		setDefault(&r.DurationMs, DefaultBreathingDurationMs)
		setDefault(&r.Cycles, DefaultBreathingCycles)
	case EffectTypeRainbow:
		setDefault(&r.DurationMs, DefaultRainbowDurationMs)
		setDefault(&r.Steps, DefaultRainbowSteps)
	case EffectTypeGradient:
		setDefault(&r.DurationMs, DefaultGradientDurationMs)
		setDefault(&r.Steps, DefaultGradientSteps)
	case EffectTypeDemo:
		setDefault(&r.IntervalMs, DefaultDemoIntervalMs)
	case EffectTypeCombinations:
		setDefault(&r.IntervalMs, DefaultCombinationMs)
	}
	if r.Level == nil {
		level := MaxPercent
		r.Level = &level
	}
	return r
}

// GetLevel returns the level of a single channel request.
func (r EffectRequest) GetLevel() float64 {
	if r.Level == nil {
		return MaxPercent
	}
	return *r.Level
}

// Duration returns DurationMs as duration.
func (r EffectRequest) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Interval returns IntervalMs as duration.
func (r EffectRequest) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

// Validate the given request, returning nil on ok,
// or an error upon validation issues.
// Defaults are expected to be applied.
func (r EffectRequest) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if r.DurationMs < 0 {
		return InvalidArgument("durationMs must be >= 0, got %d", r.DurationMs)
	}
	if r.Cycles < 0 {
		return InvalidArgument("cycles must be >= 0, got %d", r.Cycles)
	}
	if r.Repeat < 0 {
		return InvalidArgument("repeat must be >= 0, got %d", r.Repeat)
	}
	switch r.Type {
	case EffectTypeFadeIn, EffectTypeFadeOut, EffectTypeRainbow, EffectTypeGradient:
		if r.Steps <= 0 {
			return InvalidArgument("steps must be > 0, got %d", r.Steps)
		}
	case EffectTypeDemo, EffectTypeCombinations:
		if r.IntervalMs <= 0 {
			return InvalidArgument("intervalMs must be > 0, got %d", r.IntervalMs)
		}
	}
	return nil
}
