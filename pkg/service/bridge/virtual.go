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

	"github.com/pkg/errors"

	"github.com/binkynet/LedWorker/model"
)

// VirtualBridge implements the bridge for a virtual LED worker.
// All pin state is kept in memory and every write is recorded.
type VirtualBridge struct {
	mutex   sync.Mutex
	outputs map[model.Pin]*VirtualOutputPin
	pwms    map[model.Pin]*VirtualPWMPin
	closed  bool
}

var _ API = &VirtualBridge{}

// NewVirtualBridge implements the bridge for a virtual LED worker.
func NewVirtualBridge() *VirtualBridge {
	return &VirtualBridge{
		outputs: make(map[model.Pin]*VirtualOutputPin),
		pwms:    make(map[model.Pin]*VirtualPWMPin),
	}
}

// Output claims a digital output pin with the given pin.
func (b *VirtualBridge) Output(pin model.Pin, activeLow bool) (OutputPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if err := b.claim(pin); err != nil {
		return nil, err
	}
	p := &VirtualOutputPin{pin: pin, activeLow: activeLow}
	b.outputs[pin] = p
	claimedPinsGauge.WithLabelValues("virtual-output").Inc()
	return p, nil
}

// PWM claims a variable duty cycle output on the given pin.
func (b *VirtualBridge) PWM(pin model.Pin, frequency, maxDuty int, activeLow bool) (PWMPin, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frequency <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "invalid frequency %d for pin '%s'", frequency, pin)
	}
	if maxDuty <= 0 {
		return nil, errors.Wrapf(model.ValidationError, "invalid max duty %d for pin '%s'", maxDuty, pin)
	}
	if err := b.claim(pin); err != nil {
		return nil, err
	}
	p := &VirtualPWMPin{
		pin:       pin,
		frequency: frequency,
		maxDuty:   maxDuty,
		activeLow: activeLow,
	}
	b.pwms[pin] = p
	claimedPinsGauge.WithLabelValues("virtual-pwm").Inc()
	return p, nil
}

// claim checks that the given pin is free.
// Must be called with mutex locked.
func (b *VirtualBridge) claim(pin model.Pin) error {
	if b.closed {
		return errors.Wrap(model.ValidationError, "bridge is closed")
	}
	if err := pin.Validate(); err != nil {
		return err
	}
	_, isOutput := b.outputs[pin]
	_, isPWM := b.pwms[pin]
	if isOutput || isPWM {
		return errors.Wrapf(model.ValidationError, "pin '%s' is already claimed", pin)
	}
	return nil
}

// OutputPin returns the claimed digital output with given pin (if any).
func (b *VirtualBridge) OutputPin(pin model.Pin) (*VirtualOutputPin, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	p, found := b.outputs[pin]
	return p, found
}

// PWMPin returns the claimed PWM output with given pin (if any).
func (b *VirtualBridge) PWMPin(pin model.Pin) (*VirtualPWMPin, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	p, found := b.pwms[pin]
	return p, found
}

// Close releases all resources held by the bridge.
func (b *VirtualBridge) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.closed = true
	return nil
}

// VirtualOutputPin is an in-memory digital output.
type VirtualOutputPin struct {
	mutex     sync.Mutex
	pin       model.Pin
	activeLow bool
	value     bool
	writes    int
	releases  int
	err       error
}

// Write sets the logical state of the pin.
func (p *VirtualOutputPin) Write(value bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.releases > 0 {
		return countWrite(string(p.pin), errors.Errorf("pin '%s' is released", p.pin))
	}
	if p.err != nil {
		return countWrite(string(p.pin), p.err)
	}
	p.value = value
	p.writes++
	return countWrite(string(p.pin), nil)
}

// Release drives the pin inactive and frees it.
func (p *VirtualOutputPin) Release() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.value = false
	p.releases++
	if p.releases > 1 {
		return errors.Errorf("pin '%s' released %d times", p.pin, p.releases)
	}
	claimedPinsGauge.WithLabelValues("virtual-output").Dec()
	return nil
}

// Releases returns the number of times Release was called.
func (p *VirtualOutputPin) Releases() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.releases
}

// Value returns the logical state of the pin.
func (p *VirtualOutputPin) Value() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.value
}

// Level returns the electrical state of the pin.
func (p *VirtualOutputPin) Level() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.value != p.activeLow
}

// Writes returns the number of successful writes.
func (p *VirtualOutputPin) Writes() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.writes
}

// SetError causes all following writes to fail with the given error.
// Pass nil to restore normal operation.
func (p *VirtualOutputPin) SetError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.err = err
}

// VirtualPWMPin is an in-memory variable duty cycle output.
type VirtualPWMPin struct {
	mutex     sync.Mutex
	pin       model.Pin
	frequency int
	maxDuty   int
	activeLow bool
	duty      int
	history   []int
	releases  int
	err       error
}

// SetDuty sets the duty cycle (0...maxDuty).
func (p *VirtualPWMPin) SetDuty(value int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.releases > 0 {
		return countWrite(string(p.pin), errors.Errorf("pin '%s' is released", p.pin))
	}
	if value < 0 || value > p.maxDuty {
		return countWrite(string(p.pin), errors.Errorf("duty %d of pin '%s' is out of range [0..%d]", value, p.pin, p.maxDuty))
	}
	if p.err != nil {
		return countWrite(string(p.pin), p.err)
	}
	p.duty = value
	p.history = append(p.history, value)
	return countWrite(string(p.pin), nil)
}

// Duty returns the current duty cycle.
func (p *VirtualPWMPin) Duty() (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.duty, nil
}

// Release sets the duty cycle to 0 and frees the pin.
func (p *VirtualPWMPin) Release() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.duty = 0
	p.releases++
	if p.releases > 1 {
		return errors.Errorf("pin '%s' released %d times", p.pin, p.releases)
	}
	claimedPinsGauge.WithLabelValues("virtual-pwm").Dec()
	return nil
}

// History returns a copy of all duty cycles written.
func (p *VirtualPWMPin) History() []int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]int(nil), p.history...)
}

// Releases returns the number of times Release was called.
func (p *VirtualPWMPin) Releases() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.releases
}

// Frequency returns the frequency (Hz) the pin was claimed with.
func (p *VirtualPWMPin) Frequency() int {
	return p.frequency
}

// SetError causes all following duty writes to fail with the given error.
// Pass nil to restore normal operation.
func (p *VirtualPWMPin) SetError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.err = err
}
