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
	"context"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
)

const (
	pca9685MODE1Reg      = 0x00
	pca9685LEDBaseReg    = 0x06
	pca9685AllOffHighReg = 0xFD
	pca9685PRESCALEReg   = 0xFE
	pca9685OnLowRegOfs   = 0
	pca9685OnHighRegOfs  = 1
	pca9685OffLowRegOfs  = 2
	pca9685OffHighRegOfs = 3
	pca9685RegIncrement  = 4

	pca9685Steps      = 4096
	pca9685Oscillator = 25000000.0
	pca9685FullBit    = 0b00010000
	// MODE1: SLEEP=1, ALLCALL=1
	pca9685Sleep = 0x11
	// MODE1: SLEEP=0, ALLCALL=1
	pca9685Awake = 0x01
)

type pca9685Bridge struct {
	mutex     sync.Mutex
	log       zerolog.Logger
	bus       I2CBus
	address   uint16
	frequency int
	claimed   map[int]model.Pin
	closed    bool
}

// NewPCA9685Bridge implements the bridge using the 16 PWM channels
// of a PCA9685 at given address on the given bus.
// All channels share the given frequency.
// Pins are channel numbers (0...15).
func NewPCA9685Bridge(ctx context.Context, log zerolog.Logger, bus I2CBus, address uint16, frequency int) (API, error) {
	if frequency < model.PCA9685MinFrequency || frequency > model.PCA9685MaxFrequency {
		return nil, errors.Wrapf(model.ValidationError, "PCA9685 frequency must be in %d..%d range, got %d",
			model.PCA9685MinFrequency, model.PCA9685MaxFrequency, frequency)
	}
	prescale := pca9685Prescale(frequency)
	if err := bus.Execute(ctx, address, func(ctx context.Context, dev I2CDevice) error {
		// The prescaler can only be changed while sleeping
		if err := dev.WriteByteReg(pca9685MODE1Reg, pca9685Sleep); err != nil {
			return err
		}
		if err := dev.WriteByteReg(pca9685PRESCALEReg, prescale); err != nil {
			return err
		}
		if err := dev.WriteByteReg(pca9685AllOffHighReg, pca9685FullBit); err != nil {
			return err
		}
		return dev.WriteByteReg(pca9685MODE1Reg, pca9685Awake)
	}); err != nil {
		return nil, errors.Wrapf(err, "Failed to configure PCA9685 at 0x%02x", address)
	}
	log = log.With().Str("bridge", "pca9685").Logger()
	log.Debug().
		Str("frequency", humanize.SIWithDigits(float64(frequency), 0, "Hz")).
		Uint8("prescale", prescale).
		Msg("Configured PCA9685")
	return &pca9685Bridge{
		log:       log,
		bus:       bus,
		address:   address,
		frequency: frequency,
		claimed:   make(map[int]model.Pin),
	}, nil
}

// pca9685Prescale returns the prescaler value for the given output frequency.
func pca9685Prescale(frequency int) uint8 {
	prescale := math.Round(pca9685Oscillator/(pca9685Steps*float64(frequency))) - 1
	return uint8(math.Max(3, math.Min(255, prescale)))
}

// claim parses the pin and marks its channel claimed.
// Must be called with mutex locked.
func (b *pca9685Bridge) claim(pin model.Pin) (int, error) {
	if b.closed {
		return 0, errors.Wrap(model.ValidationError, "bridge is closed")
	}
	if err := pin.Validate(); err != nil {
		return 0, err
	}
	channel, err := pin.Number()
	if err != nil {
		return 0, err
	}
	if channel >= model.PCA9685Channels {
		return 0, errors.Wrapf(model.ValidationError, "pin '%s' must be a channel in 0..%d range", pin, model.PCA9685Channels-1)
	}
	if _, found := b.claimed[channel]; found {
		return 0, errors.Wrapf(model.ValidationError, "pin '%s' is already claimed", pin)
	}
	b.claimed[channel] = pin
	return channel, nil
}

// unclaim frees the given channel.
func (b *pca9685Bridge) unclaim(channel int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.claimed, channel)
}

// Output claims a digital output on the given channel.
func (b *pca9685Bridge) Output(pin model.Pin, activeLow bool) (OutputPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	channel, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	out := &pca9685Output{bridge: b, channel: channel, pin: pin, activeLow: activeLow}
	if err := b.writeChannel(pin, channel, out.steps(false)); err != nil {
		delete(b.claimed, channel)
		return nil, errors.Wrapf(err, "Failed to initialize output pin '%s'", pin)
	}
	claimedPinsGauge.WithLabelValues("pca9685-output").Inc()
	b.log.Debug().Int("channel", channel).Bool("active-low", activeLow).Msg("Claimed output channel")
	return out, nil
}

// PWM claims a variable duty cycle output on the given channel.
func (b *pca9685Bridge) PWM(pin model.Pin, frequency, maxDuty int, activeLow bool) (PWMPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frequency != b.frequency {
		return nil, errors.Wrapf(model.ValidationError, "pin '%s' cannot produce PWM at %s, all channels run at %s",
			pin, humanize.SIWithDigits(float64(frequency), 0, "Hz"), humanize.SIWithDigits(float64(b.frequency), 0, "Hz"))
	}
	if maxDuty <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "invalid max duty %d for pin '%s'", maxDuty, pin)
	}
	channel, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	out := &pca9685PWM{bridge: b, channel: channel, pin: pin, maxDuty: maxDuty, activeLow: activeLow}
	if err := b.writeChannel(pin, channel, out.steps(0)); err != nil {
		delete(b.claimed, channel)
		return nil, errors.Wrapf(err, "Failed to initialize PWM pin '%s'", pin)
	}
	claimedPinsGauge.WithLabelValues("pca9685-pwm").Inc()
	b.log.Debug().Int("channel", channel).Int("max-duty", maxDuty).Msg("Claimed PWM channel")
	return out, nil
}

// Close turns all channels off and puts the chip to sleep.
func (b *pca9685Bridge) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	clear(b.claimed)
	var ae aerr.AggregateError
	ae.Add(b.bus.Execute(context.Background(), b.address, func(ctx context.Context, dev I2CDevice) error {
		if err := dev.WriteByteReg(pca9685AllOffHighReg, pca9685FullBit); err != nil {
			return err
		}
		return dev.WriteByteReg(pca9685MODE1Reg, pca9685Sleep)
	}))
	ae.Add(b.bus.Close())
	return ae.AsError()
}

// pca9685RegBase returns the first register of the given channel.
func pca9685RegBase(channel int) uint8 {
	return uint8(pca9685LEDBaseReg + channel*pca9685RegIncrement)
}

// writeChannel sets the number of steps (0...4096) the channel is on per period.
func (b *pca9685Bridge) writeChannel(pin model.Pin, channel, steps int) error {
	regBase := pca9685RegBase(channel)
	var onHigh, offLow, offHigh uint8
	switch {
	case steps <= 0:
		offHigh = pca9685FullBit
	case steps >= pca9685Steps:
		onHigh = pca9685FullBit
	default:
		offLow = uint8(steps & 0xFF)
		offHigh = uint8((steps >> 8) & 0x0F)
	}
	err := b.bus.Execute(context.Background(), b.address, func(ctx context.Context, dev I2CDevice) error {
		if err := dev.WriteByteReg(regBase+pca9685OnLowRegOfs, 0); err != nil {
			return err
		}
		if err := dev.WriteByteReg(regBase+pca9685OnHighRegOfs, onHigh); err != nil {
			return err
		}
		if err := dev.WriteByteReg(regBase+pca9685OffLowRegOfs, offLow); err != nil {
			return err
		}
		return dev.WriteByteReg(regBase+pca9685OffHighRegOfs, offHigh)
	})
	return countWrite(string(pin), err)
}

// readChannel reads back the number of steps (0...4096) the channel is on per period.
func (b *pca9685Bridge) readChannel(channel int) (int, error) {
	regBase := pca9685RegBase(channel)
	var steps int
	if err := b.bus.Execute(context.Background(), b.address, func(ctx context.Context, dev I2CDevice) error {
		var regs [4]uint8
		for i := range regs {
			v, err := dev.ReadByteReg(regBase + uint8(i))
			if err != nil {
				return err
			}
			regs[i] = v
		}
		on := int(regs[pca9685OnLowRegOfs]) | int(regs[pca9685OnHighRegOfs]&0x0F)<<8
		off := int(regs[pca9685OffLowRegOfs]) | int(regs[pca9685OffHighRegOfs]&0x0F)<<8
		switch {
		case regs[pca9685OffHighRegOfs]&pca9685FullBit != 0:
			steps = 0
		case regs[pca9685OnHighRegOfs]&pca9685FullBit != 0:
			steps = pca9685Steps
		default:
			steps = (off - on + pca9685Steps) % pca9685Steps
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return steps, nil
}

type pca9685Output struct {
	mutex     sync.Mutex
	bridge    *pca9685Bridge
	channel   int
	pin       model.Pin
	activeLow bool
	released  bool
}

// Write sets the logical state of the channel.
func (o *pca9685Output) Write(value bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is released", o.pin)
	}
	return o.bridge.writeChannel(o.pin, o.channel, o.steps(value))
}

// Release turns the channel off and frees it.
func (o *pca9685Output) Release() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is already released", o.pin)
	}
	o.released = true
	err := o.bridge.writeChannel(o.pin, o.channel, o.steps(false))
	o.bridge.unclaim(o.channel)
	claimedPinsGauge.WithLabelValues("pca9685-output").Dec()
	if err != nil {
		return errors.Wrapf(err, "Release[%s] failed", o.pin)
	}
	return nil
}

// steps converts a logical state into the number of on steps per period.
func (o *pca9685Output) steps(value bool) int {
	if value != o.activeLow {
		return pca9685Steps
	}
	return 0
}

type pca9685PWM struct {
	mutex     sync.Mutex
	bridge    *pca9685Bridge
	channel   int
	pin       model.Pin
	maxDuty   int
	activeLow bool
	released  bool
}

// SetDuty sets the duty cycle (0...maxDuty).
func (o *pca9685PWM) SetDuty(value int) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is released", o.pin)
	}
	if value < 0 || value > o.maxDuty {
		return errors.Errorf("duty %d of pin '%s' is out of range [0..%d]", value, o.pin, o.maxDuty)
	}
	if err := o.bridge.writeChannel(o.pin, o.channel, o.steps(value)); err != nil {
		return errors.Wrapf(err, "SetDuty[%s] failed", o.pin)
	}
	return nil
}

// Duty reads back the duty cycle from the chip.
func (o *pca9685PWM) Duty() (int, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return 0, nil
	}
	steps, err := o.bridge.readChannel(o.channel)
	if err != nil {
		return 0, errors.Wrapf(err, "Duty[%s] failed", o.pin)
	}
	if o.activeLow {
		steps = pca9685Steps - steps
	}
	return (steps*o.maxDuty + pca9685Steps/2) / pca9685Steps, nil
}

// Release turns the channel off and frees it.
func (o *pca9685PWM) Release() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.released {
		return errors.Errorf("pin '%s' is already released", o.pin)
	}
	o.released = true
	err := o.bridge.writeChannel(o.pin, o.channel, o.steps(0))
	o.bridge.unclaim(o.channel)
	claimedPinsGauge.WithLabelValues("pca9685-pwm").Dec()
	if err != nil {
		return errors.Wrapf(err, "Release[%s] failed", o.pin)
	}
	return nil
}

// steps converts a duty cycle into the number of on steps per period.
func (o *pca9685PWM) steps(value int) int {
	steps := (value*pca9685Steps + o.maxDuty/2) / o.maxDuty
	if o.activeLow {
		steps = pca9685Steps - steps
	}
	return steps
}
