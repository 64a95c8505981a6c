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

package devices

import (
	"context"
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
)

// DimmableConfig holds the configuration of a dimmable driver.
type DimmableConfig struct {
	Pins      model.RGBPins
	Frequency int
	MaxDuty   int
	ActiveLow bool
}

// Dependencies of the drivers.
type Dependencies struct {
	Log    zerolog.Logger
	Bridge bridge.API
	// Called after every committed change (optional)
	OnChange ChangeListener
}

type dimmable struct {
	Dependencies
	mutex    sync.Mutex
	maxDuty  int
	outputs  [3]bridge.PWMPin
	duty     [3]int
	released bool
}

var _ DimmableColorDriver = &dimmable{}

// NewDimmableColorDriver claims a PWM output for each channel and
// returns a driver for them.
// Failing to claim an output is a configuration error.
func NewDimmableColorDriver(config DimmableConfig, deps Dependencies) (DimmableColorDriver, error) {
	if err := config.Pins.Validate(); err != nil {
		return nil, err
	}
	if config.MaxDuty <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "MaxDuty must be > 0, got %d", config.MaxDuty)
	}
	if deps.Bridge == nil {
		return nil, errors.Wrap(model.ValidationError, "Bridge is nil")
	}
	deps.Log = deps.Log.With().Str("component", "dimmable-driver").Logger()
	d := &dimmable{
		Dependencies: deps,
		maxDuty:      config.MaxDuty,
	}
	for i, pin := range config.Pins.All() {
		out, err := deps.Bridge.PWM(pin, config.Frequency, config.MaxDuty, config.ActiveLow)
		if err != nil {
			// Free what we already claimed
			for _, claimed := range d.outputs[:i] {
				claimed.Release()
			}
			return nil, errors.Wrapf(err, "Failed to claim %s output", model.ChannelNames[i])
		}
		d.outputs[i] = out
	}
	d.Log.Debug().
		Str("red", string(config.Pins.Red)).
		Str("green", string(config.Pins.Green)).
		Str("blue", string(config.Pins.Blue)).
		Int("frequency", config.Frequency).
		Int("max-duty", config.MaxDuty).
		Msg("Dimmable driver ready")
	return d, nil
}

// Configure is called once to put the device in the off state.
func (d *dimmable) Configure(ctx context.Context) error {
	return d.Off(ctx)
}

// Mode returns the mode of the driver.
func (d *dimmable) Mode() model.DriverMode {
	return model.DriverModePWM
}

// SetBrightness clamps each channel to [0..100], converts it to a duty
// cycle and commits all three channels.
func (d *dimmable) SetBrightness(ctx context.Context, b model.Brightness) error {
	duty := b.Duty(d.maxDuty)
	d.mutex.Lock()
	err := d.commit(duty)
	state := d.stateLocked()
	d.mutex.Unlock()

	if err != nil {
		commitErrorsTotal.WithLabelValues(string(model.DriverModePWM)).Inc()
		return err
	}
	commitsTotal.WithLabelValues(string(model.DriverModePWM)).Inc()
	d.Log.Trace().Str("brightness", b.Clamped().String()).Ints("duty", duty[:]).Msg("Set brightness")
	if cb := d.OnChange; cb != nil {
		cb(state)
	}
	return nil
}

// commit writes the given duty cycles to the outputs.
// Must be called with mutex locked.
func (d *dimmable) commit(duty [3]int) error {
	if d.released {
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	for i, out := range d.outputs {
		if err := out.SetDuty(duty[i]); err != nil {
			return errors.Wrapf(err, "SetDuty[%s] failed", model.ChannelNames[i])
		}
		d.duty[i] = duty[i]
		dutyGauge.WithLabelValues(model.ChannelNames[i]).Set(float64(duty[i]))
	}
	return nil
}

// SetColorRGB converts a byte color to percentages and sets the brightness.
func (d *dimmable) SetColorRGB(ctx context.Context, c model.RGB) error {
	return d.SetBrightness(ctx, c.Brightness())
}

// Off turns all channels off.
func (d *dimmable) Off(ctx context.Context) error {
	return d.SetBrightness(ctx, model.Off)
}

// RedOn sets red to the given percentage and others to 0.
func (d *dimmable) RedOn(ctx context.Context, brightness float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(brightness, 0, 0))
}

// GreenOn sets green to the given percentage and others to 0.
func (d *dimmable) GreenOn(ctx context.Context, brightness float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(0, brightness, 0))
}

// BlueOn sets blue to the given percentage and others to 0.
func (d *dimmable) BlueOn(ctx context.Context, brightness float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(0, 0, brightness))
}

// WhiteOn sets all channels to the given percentage.
func (d *dimmable) WhiteOn(ctx context.Context, brightness float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(brightness, brightness, brightness))
}

// Brightness returns the last committed brightness.
func (d *dimmable) Brightness() model.Brightness {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return model.BrightnessFromDuty(d.duty, d.maxDuty)
}

// Duty returns the last committed duty cycles.
func (d *dimmable) Duty() [3]int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.duty
}

// DutyCycles reads back the duty cycles from the outputs.
func (d *dimmable) DutyCycles(ctx context.Context) ([3]int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var result [3]int
	if d.released {
		return result, errors.WithStack(model.ErrAlreadyReleased)
	}
	for i, out := range d.outputs {
		duty, err := out.Duty()
		if err != nil {
			return result, errors.Wrapf(err, "Duty[%s] failed", model.ChannelNames[i])
		}
		result[i] = duty
	}
	return result, nil
}

// MaxDuty returns the duty cycle resolution.
func (d *dimmable) MaxDuty() int {
	return d.maxDuty
}

// State returns the last committed state of the driver.
func (d *dimmable) State() model.State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.stateLocked()
}

// stateLocked builds the state.
// Must be called with mutex locked.
func (d *dimmable) stateLocked() model.State {
	return model.State{
		Mode:       model.DriverModePWM,
		Brightness: model.BrightnessFromDuty(d.duty, d.maxDuty),
		Duty:       d.duty,
		MaxDuty:    d.maxDuty,
		Released:   d.released,
	}
}

// Close sets all duty cycles to 0 and releases the outputs.
func (d *dimmable) Close(ctx context.Context) error {
	d.mutex.Lock()
	if d.released {
		d.mutex.Unlock()
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	var ae aerr.AggregateError
	ae.Add(d.commit([3]int{}))
	d.released = true
	for i, out := range d.outputs {
		if err := out.Release(); err != nil {
			ae.Add(errors.Wrapf(err, "Release[%s] failed", model.ChannelNames[i]))
		}
	}
	d.duty = [3]int{}
	state := d.stateLocked()
	d.mutex.Unlock()

	d.Log.Debug().Msg("Released outputs")
	if cb := d.OnChange; cb != nil {
		cb(state)
	}
	return ae.AsError()
}
