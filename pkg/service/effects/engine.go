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

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/color"
	"github.com/binkynet/LedWorker/pkg/service/devices"
)

var (
	maskAny = errors.WithStack
)

// Engine runs timed brightness effects on a dimmable driver.
// An engine does not serialize its callers; running two effects at
// the same time against the same driver is the caller's problem.
type Engine struct {
	log     zerolog.Logger
	driver  devices.DimmableColorDriver
	delayer Delayer
}

// NewEngine creates a new engine for the given driver.
// If delayer is nil, TimerDelayer is used.
func NewEngine(log zerolog.Logger, driver devices.DimmableColorDriver, delayer Delayer) *Engine {
	if delayer == nil {
		delayer = TimerDelayer
	}
	return &Engine{
		log:     log.With().Str("component", "effects").Logger(),
		driver:  driver,
		delayer: delayer,
	}
}

// Driver returns the driver the engine runs on.
func (e *Engine) Driver() devices.DimmableColorDriver {
	return e.driver
}

// Delayer returns the delay used between steps.
func (e *Engine) Delayer() Delayer {
	return e.delayer
}

// FadeIn raises the brightness from off to the given target in steps+1
// equal increments, waiting duration/steps after each step.
// The final state is exactly the (clamped) target.
func (e *Engine) FadeIn(ctx context.Context, target model.Brightness, duration time.Duration, steps int) error {
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	return track(e.log, model.EffectTypeFadeIn, func() error {
		return e.fadeIn(ctx, model.EffectTypeFadeIn, target, duration, steps)
	})
}

// FadeOut lowers the brightness from the last committed brightness
// to off in steps+1 equal decrements, waiting duration/steps after each step.
func (e *Engine) FadeOut(ctx context.Context, duration time.Duration, steps int) error {
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	return track(e.log, model.EffectTypeFadeOut, func() error {
		return e.fadeOut(ctx, model.EffectTypeFadeOut, e.driver.Brightness(), duration, steps)
	})
}

// FadeOutFrom lowers the brightness from the given start to off.
func (e *Engine) FadeOutFrom(ctx context.Context, start model.Brightness, duration time.Duration, steps int) error {
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	return track(e.log, model.EffectTypeFadeOut, func() error {
		return e.fadeOut(ctx, model.EffectTypeFadeOut, start, duration, steps)
	})
}

// Breathing fades in to the given color and out again, cycles times.
// Each half of a breath takes duration/2 in BreathingSteps steps.
func (e *Engine) Breathing(ctx context.Context, c model.RGB, cycles int, duration time.Duration) error {
	if cycles < 0 {
		return model.InvalidArgument("cycles must be >= 0, got %d", cycles)
	}
	half := time.Duration(duration.Milliseconds()/2) * time.Millisecond
	if err := validateTiming(half, model.BreathingSteps); err != nil {
		return err
	}
	target := c.Brightness()
	return track(e.log, model.EffectTypeBreathing, func() error {
		for cycle := 0; cycle < cycles; cycle++ {
			e.log.Trace().Int("cycle", cycle).Msg("Breathe")
			if err := e.fadeIn(ctx, model.EffectTypeBreathing, target, half, model.BreathingSteps); err != nil {
				return err
			}
			if err := e.fadeOut(ctx, model.EffectTypeBreathing, e.driver.Brightness(), half, model.BreathingSteps); err != nil {
				return err
			}
		}
		return nil
	})
}

// RainbowCycle walks the hue circle once in steps equally spaced colors
// at full saturation and value, waiting duration/steps after each color.
// Hue 360 is never reached.
func (e *Engine) RainbowCycle(ctx context.Context, duration time.Duration, steps int) error {
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	return track(e.log, model.EffectTypeRainbow, func() error {
		return e.rainbowCycle(ctx, duration, steps)
	})
}

// Rainbow runs repeat rainbow cycles, or cycles until canceled when
// repeat is 0.
func (e *Engine) Rainbow(ctx context.Context, duration time.Duration, steps, repeat int) error {
	if repeat < 0 {
		return model.InvalidArgument("repeat must be >= 0, got %d", repeat)
	}
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	return track(e.log, model.EffectTypeRainbow, func() error {
		for i := 0; repeat == 0 || i < repeat; i++ {
			if err := ctx.Err(); err != nil {
				return maskAny(err)
			}
			if err := e.rainbowCycle(ctx, duration, steps); err != nil {
				return err
			}
		}
		return nil
	})
}

// Gradient cross-fades from one byte color to another in steps+1 colors,
// waiting duration/steps after each color.
func (e *Engine) Gradient(ctx context.Context, from, to model.RGB, duration time.Duration, steps int) error {
	if err := validateTiming(duration, steps); err != nil {
		return err
	}
	interval := stepInterval(duration, steps)
	return track(e.log, model.EffectTypeGradient, func() error {
		for i := 0; i <= steps; i++ {
			c := model.RGB{
				Red:   interpolate(from.Red, to.Red, i, steps),
				Green: interpolate(from.Green, to.Green, i, steps),
				Blue:  interpolate(from.Blue, to.Blue, i, steps),
			}
			if err := e.step(ctx, model.EffectTypeGradient, interval, func() error {
				return e.driver.SetColorRGB(ctx, c)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) fadeIn(ctx context.Context, t model.EffectType, target model.Brightness, duration time.Duration, steps int) error {
	interval := stepInterval(duration, steps)
	for i := 0; i <= steps; i++ {
		b := target.Scale(float64(i) / float64(steps))
		if err := e.step(ctx, t, interval, func() error {
			return e.driver.SetBrightness(ctx, b)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fadeOut(ctx context.Context, t model.EffectType, start model.Brightness, duration time.Duration, steps int) error {
	interval := stepInterval(duration, steps)
	for i := 0; i <= steps; i++ {
		b := start.Scale(1 - float64(i)/float64(steps))
		if err := e.step(ctx, t, interval, func() error {
			return e.driver.SetBrightness(ctx, b)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) rainbowCycle(ctx context.Context, duration time.Duration, steps int) error {
	interval := stepInterval(duration, steps)
	for i := 0; i < steps; i++ {
		hue := float64(i) / float64(steps) * 360
		c := color.HSVToRGB(hue, 100, 100)
		if err := e.step(ctx, model.EffectTypeRainbow, interval, func() error {
			return e.driver.SetColorRGB(ctx, c)
		}); err != nil {
			return err
		}
	}
	return nil
}

// step checks for cancellation, performs the given write and waits
// for the given interval.
func (e *Engine) step(ctx context.Context, t model.EffectType, interval time.Duration, write func() error) error {
	if err := ctx.Err(); err != nil {
		return maskAny(err)
	}
	if err := write(); err != nil {
		return maskAny(err)
	}
	stepsTotal.WithLabelValues(string(t)).Inc()
	if err := e.delayer.Delay(ctx, interval); err != nil {
		return maskAny(err)
	}
	return nil
}

// validateTiming checks the duration & step count of a timed effect.
func validateTiming(duration time.Duration, steps int) error {
	if steps <= 0 {
		return model.InvalidArgument("steps must be > 0, got %d", steps)
	}
	if duration < 0 {
		return model.InvalidArgument("duration must be >= 0, got %s", duration)
	}
	return nil
}

// stepInterval returns duration/steps truncated to whole milliseconds.
func stepInterval(duration time.Duration, steps int) time.Duration {
	return time.Duration(duration.Milliseconds()/int64(steps)) * time.Millisecond
}

// interpolate returns from + (to-from)*i/steps, truncated.
func interpolate(from, to uint8, i, steps int) uint8 {
	delta := float64(int(to)-int(from)) * float64(i) / float64(steps)
	return uint8(float64(from) + delta)
}

// IsInterrupted returns true if the given error is caused by
// a canceled context.
func IsInterrupted(err error) bool {
	cause := errors.Cause(err)
	return cause == context.Canceled || cause == context.DeadlineExceeded
}

// track runs the given effect, updating metrics & logging its outcome.
func track(log zerolog.Logger, t model.EffectType, fn func() error) error {
	label := string(t)
	startedTotal.WithLabelValues(label).Inc()
	log.Debug().Str("effect", label).Msg("Effect started")
	start := time.Now()
	err := fn()
	switch {
	case err == nil:
		completedTotal.WithLabelValues(label).Inc()
		log.Debug().Str("effect", label).Dur("duration", time.Since(start)).Msg("Effect completed")
	case IsInterrupted(err):
		interruptedTotal.WithLabelValues(label).Inc()
		log.Debug().Str("effect", label).Dur("duration", time.Since(start)).Msg("Effect interrupted")
	default:
		failedTotal.WithLabelValues(label).Inc()
		log.Warn().Err(err).Str("effect", label).Msg("Effect failed")
	}
	return err
}
