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

//go:build linux

package bridge

import (
	"sync"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
)

type gpioBridge struct {
	mutex sync.Mutex
	log   zerolog.Logger
	pins  map[int]struct{}
}

// NewGPIOBridge implements the bridge for sysfs GPIO.
// This bridge supports digital outputs only.
func NewGPIOBridge(log zerolog.Logger) (API, error) {
	return &gpioBridge{
		log:  log.With().Str("bridge", "gpio").Logger(),
		pins: make(map[int]struct{}),
	}, nil
}

// Output initializes a GPIO output pin with the given pin number.
// The pin starts inactive.
func (p *gpioBridge) Output(pin model.Pin, activeLow bool) (OutputPin, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	nr, err := pin.Number()
	if err != nil {
		return nil, err
	}
	if _, found := p.pins[nr]; found {
		return nil, errors.Wrapf(model.ValidationError, "pin %d is already claimed", nr)
	}
	out, err := gpio.Output(nr, activeLow, false)
	if err != nil {
		return nil, errors.Wrapf(model.ValidationError, "Output[%d] failed: %s", nr, err.Error())
	}
	p.pins[nr] = struct{}{}
	claimedPinsGauge.WithLabelValues("gpio-output").Inc()
	p.log.Debug().Int("pin", nr).Bool("active-low", activeLow).Msg("Claimed output pin")
	return &gpioOutput{bridge: p, pin: out, nr: nr, name: string(pin)}, nil
}

// PWM is not supported by sysfs GPIO.
func (p *gpioBridge) PWM(pin model.Pin, frequency, maxDuty int, activeLow bool) (PWMPin, error) {
	return nil, errors.Wrapf(model.ValidationError, "gpio bridge does not support PWM on pin '%s'", pin)
}

func (p *gpioBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pins = make(map[int]struct{})
	return nil
}

type gpioOutput struct {
	mutex    sync.Mutex
	bridge   *gpioBridge
	pin      gpio.OutputPin
	nr       int
	name     string
	released bool
}

// Write sets the logical state of the pin.
func (o *gpioOutput) Write(value bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is released", o.name)
	}
	if err := countWrite(o.name, o.pin.Write(value)); err != nil {
		return errors.Wrap(err, "Write failed")
	}
	return nil
}

// Release drives the pin inactive and frees it.
func (o *gpioOutput) Release() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is already released", o.name)
	}
	o.released = true
	err := countWrite(o.name, o.pin.Write(false))
	o.bridge.mutex.Lock()
	delete(o.bridge.pins, o.nr)
	o.bridge.mutex.Unlock()
	claimedPinsGauge.WithLabelValues("gpio-output").Dec()
	if err != nil {
		return errors.Wrapf(err, "Release[%s] failed", o.name)
	}
	return nil
}
