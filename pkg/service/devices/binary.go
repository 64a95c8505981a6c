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

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
)

// BinaryConfig holds the configuration of a binary driver.
type BinaryConfig struct {
	Pins      model.RGBPins
	ActiveLow bool
}

type binary struct {
	Dependencies
	mutex    sync.Mutex
	outputs  [3]bridge.OutputPin
	color    model.BinaryColor
	released bool
}

var _ BinaryColorDriver = &binary{}

// NewBinaryColorDriver claims a digital output for each channel and
// returns a driver for them.
func NewBinaryColorDriver(config BinaryConfig, deps Dependencies) (BinaryColorDriver, error) {
	if err := config.Pins.Validate(); err != nil {
		return nil, err
	}
	if deps.Bridge == nil {
		return nil, errors.Wrap(model.ValidationError, "Bridge is nil")
	}
	deps.Log = deps.Log.With().Str("component", "binary-driver").Logger()
	d := &binary{
		Dependencies: deps,
	}
	for i, pin := range config.Pins.All() {
		out, err := deps.Bridge.Output(pin, config.ActiveLow)
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
		Bool("active-low", config.ActiveLow).
		Msg("Binary driver ready")
	return d, nil
}

// Configure is called once to put the device in the off state.
func (d *binary) Configure(ctx context.Context) error {
	return d.Off(ctx)
}

// Mode returns the mode of the driver.
func (d *binary) Mode() model.DriverMode {
	return model.DriverModeBinary
}

// SetColor drives each channel to the given state.
func (d *binary) SetColor(ctx context.Context, c model.BinaryColor) error {
	d.mutex.Lock()
	err := d.commit(c)
	state := d.stateLocked()
	d.mutex.Unlock()

	if err != nil {
		commitErrorsTotal.WithLabelValues(string(model.DriverModeBinary)).Inc()
		return err
	}
	commitsTotal.WithLabelValues(string(model.DriverModeBinary)).Inc()
	d.Log.Trace().Str("color", c.String()).Msg("Set color")
	if cb := d.OnChange; cb != nil {
		cb(state)
	}
	return nil
}

// commit writes the given states to the outputs.
// Must be called with mutex locked.
func (d *binary) commit(c model.BinaryColor) error {
	if d.released {
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	channels := c.Channels()
	for i, out := range d.outputs {
		if err := out.Write(channels[i]); err != nil {
			return errors.Wrapf(err, "Write[%s] failed", model.ChannelNames[i])
		}
		value := 0.0
		if channels[i] {
			value = 1
		}
		binaryGauge.WithLabelValues(model.ChannelNames[i]).Set(value)
	}
	d.color = c
	return nil
}

// Off turns all channels off.
func (d *binary) Off(ctx context.Context) error {
	return d.SetColor(ctx, model.BinaryOff)
}

// RedOn turns on red only.
func (d *binary) RedOn(ctx context.Context) error {
	return d.SetColor(ctx, model.BinaryRed)
}

// GreenOn turns on green only.
func (d *binary) GreenOn(ctx context.Context) error {
	return d.SetColor(ctx, model.BinaryGreen)
}

// BlueOn turns on blue only.
func (d *binary) BlueOn(ctx context.Context) error {
	return d.SetColor(ctx, model.BinaryBlue)
}

// WhiteOn turns on all channels.
func (d *binary) WhiteOn(ctx context.Context) error {
	return d.SetColor(ctx, model.BinaryWhite)
}

// Color returns the last committed channel states.
func (d *binary) Color() model.BinaryColor {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.color
}

// State returns the last committed state of the driver.
func (d *binary) State() model.State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.stateLocked()
}

// stateLocked builds the state.
// Must be called with mutex locked.
func (d *binary) stateLocked() model.State {
	var b model.Brightness
	if d.color.Red {
		b.Red = model.MaxPercent
	}
	if d.color.Green {
		b.Green = model.MaxPercent
	}
	if d.color.Blue {
		b.Blue = model.MaxPercent
	}
	return model.State{
		Mode:       model.DriverModeBinary,
		Brightness: b,
		Binary:     d.color,
		Released:   d.released,
	}
}

// Close turns all channels off and stops using the outputs.
func (d *binary) Close(ctx context.Context) error {
	d.mutex.Lock()
	if d.released {
		d.mutex.Unlock()
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	var ae aerr.AggregateError
	ae.Add(d.commit(model.BinaryOff))
	d.released = true
	for i, out := range d.outputs {
		if err := out.Release(); err != nil {
			ae.Add(errors.Wrapf(err, "Release[%s] failed", model.ChannelNames[i]))
		}
	}
	state := d.stateLocked()
	d.mutex.Unlock()

	d.Log.Debug().Msg("Released outputs")
	if cb := d.OnChange; cb != nil {
		cb(state)
	}
	return ae.AsError()
}
