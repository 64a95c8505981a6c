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
	"github.com/binkynet/LedWorker/model"
)

// API of the bridge, the hardware used to connect the LED channels
// to the pins of the host.
type API interface {
	// Output claims a digital output pin with the given pin.
	// The pin starts in its inactive state.
	Output(pin model.Pin, activeLow bool) (OutputPin, error)
	// PWM claims a variable duty cycle output on the given pin.
	// Duty values range from 0 to maxDuty (inclusive), the initial duty is 0.
	PWM(pin model.Pin, frequency, maxDuty int, activeLow bool) (PWMPin, error)
	// Close releases all resources held by the bridge.
	Close() error
}

// OutputPin is the interface satisfied by digital output pins.
type OutputPin interface {
	// Write sets the logical (active/inactive) state of the pin.
	Write(bool) error
	// Release drives the pin inactive and frees it.
	Release() error
}

// PWMPin is the interface satisfied by variable duty cycle output pins.
type PWMPin interface {
	// SetDuty sets the duty cycle (0...maxDuty).
	SetDuty(value int) error
	// Duty returns the current duty cycle.
	Duty() (int, error)
	// Release sets the duty cycle to 0 and frees the peripheral.
	Release() error
}
