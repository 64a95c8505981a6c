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

package effects

import (
	"context"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/devices"
)

// Prepare applies defaults to the given request and validates it
// for a driver in the given mode.
func Prepare(req model.EffectRequest, mode model.DriverMode) (model.EffectRequest, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return req, err
	}
	if !req.Type.SupportsMode(mode) {
		return req, model.Unsupported("effect '%s' is not supported in %s mode", req.Type, mode)
	}
	return req, nil
}

// Run executes the given request on the driver of the given engine.
// Run blocks until the effect has finished or ctx is canceled.
func Run(ctx context.Context, e *Engine, req model.EffectRequest) error {
	req, err := Prepare(req, model.DriverModePWM)
	if err != nil {
		return err
	}
	d := e.driver
	switch req.Type {
	case model.EffectTypeOff:
		return d.Off(ctx)
	case model.EffectTypeColor:
		return d.SetColorRGB(ctx, req.Color.RGB())
	case model.EffectTypeBrightness:
		return d.SetBrightness(ctx, req.Brightness)
	case model.EffectTypeRed:
		return d.RedOn(ctx, req.GetLevel())
	case model.EffectTypeGreen:
		return d.GreenOn(ctx, req.GetLevel())
	case model.EffectTypeBlue:
		return d.BlueOn(ctx, req.GetLevel())
	case model.EffectTypeWhite:
		return d.WhiteOn(ctx, req.GetLevel())
	case model.EffectTypeFadeIn:
		return e.FadeIn(ctx, fadeTarget(req), req.Duration(), req.Steps)
	case model.EffectTypeFadeOut:
		return e.FadeOut(ctx, req.Duration(), req.Steps)
	case model.EffectTypeBreathing:
		return e.Breathing(ctx, req.Color.RGB(), req.Cycles, req.Duration())
	case model.EffectTypeRainbow:
		return e.Rainbow(ctx, req.Duration(), req.Steps, req.Repeat)
	case model.EffectTypeGradient:
		return e.Gradient(ctx, req.Color.RGB(), req.To.RGB(), req.Duration(), req.Steps)
	case model.EffectTypeDemo:
		return DimmableDemoSequence(ctx, d, e.delayer, req.Interval(), req.GetLevel())
	case model.EffectTypeCombinations:
		return CombinationSequence(ctx, Dimmed(d, req.GetLevel()), e.delayer, req.Interval())
	default:
		return model.Unsupported("effect '%s'", req.Type)
	}
}

// RunBinary executes the given request on a binary driver.
// RunBinary blocks until the effect has finished or ctx is canceled.
func RunBinary(ctx context.Context, d devices.BinaryColorDriver, delayer Delayer, req model.EffectRequest) error {
	req, err := Prepare(req, model.DriverModeBinary)
	if err != nil {
		return err
	}
	if delayer == nil {
		delayer = TimerDelayer
	}
	switch req.Type {
	case model.EffectTypeOff:
		return d.Off(ctx)
	case model.EffectTypeColor:
		return d.SetColor(ctx, req.Color.RGB().Threshold())
	case model.EffectTypeRed:
		return d.RedOn(ctx)
	case model.EffectTypeGreen:
		return d.GreenOn(ctx)
	case model.EffectTypeBlue:
		return d.BlueOn(ctx)
	case model.EffectTypeWhite:
		return d.WhiteOn(ctx)
	case model.EffectTypeDemo:
		return DemoSequence(ctx, d, delayer, req.Interval())
	case model.EffectTypeCombinations:
		return CombinationSequence(ctx, d, delayer, req.Interval())
	default:
		return model.Unsupported("effect '%s' in binary mode", req.Type)
	}
}

// fadeTarget returns the target of a fade-in request.
// An explicit brightness wins over a color.
func fadeTarget(req model.EffectRequest) model.Brightness {
	if !req.Brightness.IsOff() {
		return req.Brightness
	}
	return req.Color.RGB().Brightness()
}
