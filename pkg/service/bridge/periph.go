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

package bridge

import (
	"sync"

	"github.com/dustin/go-humanize"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/binkynet/LedWorker/model"
)

type periphBridge struct {
	mutex sync.Mutex
	log   zerolog.Logger
	pins  map[model.Pin]gpio.PinIO
}

// NewPeriphBridge implements the bridge using the periph.io host drivers.
func NewPeriphBridge(log zerolog.Logger) (API, error) {
	state, err := host.Init()
	if err != nil {
		return nil, errors.Wrap(err, "host.Init failed")
	}
	log = log.With().Str("bridge", "periph").Logger()
	for _, d := range state.Loaded {
		log.Debug().Str("driver", d.String()).Msg("Loaded host driver")
	}
	return &periphBridge{
		log:  log,
		pins: make(map[model.Pin]gpio.PinIO),
	}, nil
}

// lookup finds and claims the pin with given name.
// Must be called with mutex locked.
func (b *periphBridge) lookup(pin model.Pin) (gpio.PinIO, error) {
	if err := pin.Validate(); err != nil {
		return nil, err
	}
	if _, found := b.pins[pin]; found {
		return nil, errors.Wrapf(model.ValidationError, "pin '%s' is already claimed", pin)
	}
	p := gpioreg.ByName(string(pin))
	if p == nil {
		return nil, errors.Wrapf(model.ValidationError, "unknown pin '%s'", pin)
	}
	b.pins[pin] = p
	return p, nil
}

// Output claims a digital output pin with the given pin.
func (b *periphBridge) Output(pin model.Pin, activeLow bool) (OutputPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	p, err := b.lookup(pin)
	if err != nil {
		return nil, err
	}
	out := &periphOutput{pin: p, activeLow: activeLow}
	if err := out.Write(false); err != nil {
		delete(b.pins, pin)
		return nil, errors.Wrapf(err, "Failed to initialize output pin '%s'", pin)
	}
	claimedPinsGauge.WithLabelValues("periph-output").Inc()
	b.log.Debug().Str("pin", p.Name()).Bool("active-low", activeLow).Msg("Claimed output pin")
	return out, nil
}

// PWM claims a variable duty cycle output on the given pin.
func (b *periphBridge) PWM(pin model.Pin, frequency, maxDuty int, activeLow bool) (PWMPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frequency <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "invalid frequency %d for pin '%s'", frequency, pin)
	}
	if maxDuty <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "invalid max duty %d for pin '%s'", maxDuty, pin)
	}
	p, err := b.lookup(pin)
	if err != nil {
		return nil, err
	}
	out := &periphPWM{
		pin:       p,
		frequency: physic.Frequency(frequency) * physic.Hertz,
		maxDuty:   maxDuty,
		activeLow: activeLow,
	}
	if err := out.SetDuty(0); err != nil {
		delete(b.pins, pin)
		return nil, errors.Wrapf(model.ValidationError, "pin '%s' cannot produce PWM at %s: %s",
			pin, humanize.SIWithDigits(float64(frequency), 0, "Hz"), err.Error())
	}
	claimedPinsGauge.WithLabelValues("periph-pwm").Inc()
	b.log.Debug().
		Str("pin", p.Name()).
		Str("frequency", humanize.SIWithDigits(float64(frequency), 0, "Hz")).
		Int("max-duty", maxDuty).
		Msg("Claimed PWM pin")
	return out, nil
}

// Close halts all claimed pins.
func (b *periphBridge) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var ae aerr.AggregateError
	for name, p := range b.pins {
		if err := p.Halt(); err != nil {
			ae.Add(errors.Wrapf(err, "Halt[%s] failed", name))
		}
		delete(b.pins, name)
	}
	return ae.AsError()
}

type periphOutput struct {
	mutex     sync.Mutex
	pin       gpio.PinIO
	activeLow bool
	released  bool
}

// Write sets the logical state of the pin.
func (o *periphOutput) Write(value bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is released", o.pin.Name())
	}
	return countWrite(o.pin.Name(), o.pin.Out(gpio.Level(value != o.activeLow)))
}

// Release drives the pin inactive and puts it into high impedance.
func (o *periphOutput) Release() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is already released", o.pin.Name())
	}
	o.released = true
	var ae aerr.AggregateError
	if err := o.pin.Out(gpio.Level(o.activeLow)); err != nil {
		ae.Add(errors.Wrapf(err, "Out[%s] failed", o.pin.Name()))
	}
	if err := o.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		ae.Add(errors.Wrapf(err, "In[%s] failed", o.pin.Name()))
	}
	claimedPinsGauge.WithLabelValues("periph-output").Dec()
	return ae.AsError()
}

type periphPWM struct {
	mutex     sync.Mutex
	pin       gpio.PinIO
	frequency physic.Frequency
	maxDuty   int
	activeLow bool
	duty      int
	released  bool
}

// SetDuty sets the duty cycle (0...maxDuty).
func (o *periphPWM) SetDuty(value int) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is released", o.pin.Name())
	}
	if value < 0 || value > o.maxDuty {
		return errors.Errorf("duty %d of pin '%s' is out of range [0..%d]", value, o.pin.Name(), o.maxDuty)
	}
	if err := countWrite(o.pin.Name(), o.pin.PWM(o.scale(value), o.frequency)); err != nil {
		return errors.Wrapf(err, "PWM[%s] failed", o.pin.Name())
	}
	o.duty = value
	return nil
}

// Duty returns the last duty cycle written.
// periph does not support reading back the duty cycle.
func (o *periphPWM) Duty() (int, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.duty, nil
}

// Release drives the pin inactive and puts it into high impedance.
func (o *periphPWM) Release() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is already released", o.pin.Name())
	}
	o.released = true
	o.duty = 0
	var ae aerr.AggregateError
	if err := o.pin.PWM(o.scale(0), o.frequency); err != nil {
		ae.Add(errors.Wrapf(err, "PWM[%s] failed", o.pin.Name()))
	}
	if err := o.pin.Halt(); err != nil {
		ae.Add(errors.Wrapf(err, "Halt[%s] failed", o.pin.Name()))
	}
	if err := o.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		ae.Add(errors.Wrapf(err, "In[%s] failed", o.pin.Name()))
	}
	claimedPinsGauge.WithLabelValues("periph-pwm").Dec()
	return ae.AsError()
}

// scale converts a duty cycle into the periph duty range.
func (o *periphPWM) scale(value int) gpio.Duty {
	d := gpio.Duty(int64(value) * int64(gpio.DutyMax) / int64(o.maxDuty))
	if o.activeLow {
		d = gpio.DutyMax - d
	}
	return d
}
