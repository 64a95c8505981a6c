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
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/devices"
)

// ColorSetter is implemented by drivers that can show a binary color.
type ColorSetter interface {
	SetColor(ctx context.Context, c model.BinaryColor) error
}

// demoColors is the cycle shown by the demo sequences.
var demoColors = []model.BinaryColor{
	model.BinaryRed,
	model.BinaryGreen,
	model.BinaryBlue,
	model.BinaryWhite,
}

// DemoSequence shows red, green, blue and white for dwell each,
// repeating until the given context is canceled.
// The returned error is the cause of the cancellation.
func DemoSequence(ctx context.Context, driver ColorSetter, delayer Delayer, dwell time.Duration) error {
	if dwell <= 0 {
		return model.InvalidArgument("dwell must be > 0, got %s", dwell)
	}
	return track(*zerolog.Ctx(ctx), model.EffectTypeDemo, func() error {
		for {
			if err := showColors(ctx, model.EffectTypeDemo, driver, delayer, dwell, demoColors); err != nil {
				return err
			}
		}
	})
}

// CombinationSequence shows all 8 binary colors once, for dwell each,
// ending with off.
func CombinationSequence(ctx context.Context, driver ColorSetter, delayer Delayer, dwell time.Duration) error {
	if dwell <= 0 {
		return model.InvalidArgument("dwell must be > 0, got %s", dwell)
	}
	return track(*zerolog.Ctx(ctx), model.EffectTypeCombinations, func() error {
		return showColors(ctx, model.EffectTypeCombinations, driver, delayer, dwell, model.BinaryColors)
	})
}

// DimmableDemoSequence runs DemoSequence on a dimmable driver with
// every active channel at the given level.
func DimmableDemoSequence(ctx context.Context, driver devices.DimmableColorDriver, delayer Delayer, dwell time.Duration, level float64) error {
	return DemoSequence(ctx, Dimmed(driver, level), delayer, dwell)
}

// Dimmed returns a ColorSetter that shows binary colors on a dimmable
// driver with every active channel at the given level.
func Dimmed(driver devices.DimmableColorDriver, level float64) ColorSetter {
	return dimmedSetter{driver: driver, level: level}
}

type dimmedSetter struct {
	driver devices.DimmableColorDriver
	level  float64
}

// SetColor sets the active channels to the level and others to 0.
func (s dimmedSetter) SetColor(ctx context.Context, c model.BinaryColor) error {
	var b model.Brightness
	if c.Red {
		b.Red = s.level
	}
	if c.Green {
		b.Green = s.level
	}
	if c.Blue {
		b.Blue = s.level
	}
	return s.driver.SetBrightness(ctx, b)
}

func showColors(ctx context.Context, t model.EffectType, driver ColorSetter, delayer Delayer, dwell time.Duration, colors []model.BinaryColor) error {
	for _, c := range colors {
		if err := ctx.Err(); err != nil {
			return maskAny(err)
		}
		if err := driver.SetColor(ctx, c); err != nil {
			return maskAny(err)
		}
		stepsTotal.WithLabelValues(string(t)).Inc()
		if err := delayer.Delay(ctx, dwell); err != nil {
			return maskAny(err)
		}
	}
	return nil
}
